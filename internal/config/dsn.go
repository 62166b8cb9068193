package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the connection string for the configured driver. An
// explicit dsn wins; otherwise MySQL DSNs are assembled from the parts and
// SQLite uses the database name as its file path.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == DriverSQLite {
		name := c.Name
		if name == "" || name == defaultDBName {
			name = defaultSQLiteFile
		}
		return name
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Name
	mc.ParseTime = c.ParseTime
	if loc, err := time.LoadLocation(c.Loc); err == nil {
		mc.Loc = loc
	}
	mc.Params = map[string]string{"charset": c.Charset}
	for k, v := range c.Params {
		mc.Params[k] = v
	}
	return mc.FormatDSN()
}

// URLValue returns the go-redis connection URL.
func (c RedisRuntimeConfig) URLValue() string {
	if c.URL != "" {
		return c.URL
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	username := strings.TrimSpace(c.Username)
	switch {
	case username != "" && c.Password != "":
		u.User = neturl.UserPassword(username, c.Password)
	case username != "":
		u.User = neturl.User(username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}

	if len(c.Params) > 0 {
		query := neturl.Values{}
		for k, v := range c.Params {
			query.Set(k, v)
		}
		u.RawQuery = query.Encode()
	}
	return u.String()
}
