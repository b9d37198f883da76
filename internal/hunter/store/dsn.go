package store

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/LeoCommon/foxhunter/internal/hunter/config"
)

// EnvPrefix is the prefix of the environment variables overriding [storage]
const EnvPrefix = "FOXHUNTER_DB_"

// DatabaseURL builds the postgres URL from conf. FOXHUNTER_DB_URL replaces everything,
// FOXHUNTER_DB_HOST, _PORT, _USER, _PASSWORD, _DBNAME and _SSLMODE replace single fields.
func DatabaseURL(conf config.StorageConfig) (string, error) {
	if urlStr := os.Getenv(EnvPrefix + "URL"); urlStr != "" {
		return urlStr, nil
	}

	override := func(name string, value string) string {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			return v
		}
		return value
	}

	fieldsOverridden := false
	for _, name := range []string{"HOST", "PORT", "USER", "PASSWORD", "DBNAME", "SSLMODE"} {
		if os.Getenv(EnvPrefix+name) != "" {
			fieldsOverridden = true
			break
		}
	}

	if conf.URL != "" && !fieldsOverridden {
		return conf.URL, nil
	}

	host := override("HOST", conf.Host)
	dbname := override("DBNAME", conf.DBName)
	if host == "" || dbname == "" {
		return "", fmt.Errorf("database host and dbname are required, set them in [storage] or %sHOST / %sDBNAME", EnvPrefix, EnvPrefix)
	}

	port := strconv.Itoa(conf.Port)
	if conf.Port == 0 {
		port = "5432"
	}
	port = override("PORT", port)

	u := &url.URL{
		Scheme: "postgresql",
		Host:   host + ":" + port,
		Path:   dbname,
	}

	user := override("USER", conf.User)
	pass := override("PASSWORD", conf.Password)
	if user != "" {
		if pass != "" {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}

	q := u.Query()
	if sslmode := override("SSLMODE", conf.SSLMode); sslmode != "" {
		q.Set("sslmode", sslmode)
	}
	q.Set("application_name", config.ProductName)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
