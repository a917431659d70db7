// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.readtimeout", 15*time.Second)
	viper.SetDefault("server.writetimeout", 15*time.Second)
	viper.SetDefault("server.shutdowntimeout", 10*time.Second)
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.alloworigins", []string{"*"})

	viper.SetDefault("database.type", DatabaseSQLite)
	viper.SetDefault("database.sqlite.path", "app.db")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", 3306)
	viper.SetDefault("database.mysql.username", "")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "notekeeper")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.username", "")
	viper.SetDefault("database.postgres.password", "")
	viper.SetDefault("database.postgres.database", "notekeeper")
	viper.SetDefault("database.postgres.sslmode", "disable")
	viper.SetDefault("database.maxopenconns", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("database.connmaxlifetime", time.Hour)
	viper.SetDefault("database.slowquerythreshold", 200*time.Millisecond)

	viper.SetDefault("audit.recorderrors", true)
	viper.SetDefault("audit.recordreads", false)

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requestspersecond", 20.0)
	viper.SetDefault("ratelimit.burst", 40)
	viper.SetDefault("ratelimit.idlettl", 10*time.Minute)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
	viper.SetDefault("sentry.samplerate", 1.0)

	viper.SetDefault("logging.defaultlevel", "info")
	viper.SetDefault("logging.timezone", "UTC")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.fileoutput.enabled", false)
	viper.SetDefault("logging.fileoutput.path", "logs/notekeeper.log")
	viper.SetDefault("logging.fileoutput.level", "info")
	viper.SetDefault("logging.modulelevels", map[string]string{})
}
