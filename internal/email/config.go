package email

// Config содержит конфигурацию SMTP сервера
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// IsConfigured сообщает, задан ли SMTP хост.
// Без него провайдер работает в режиме логирования.
func (c Config) IsConfigured() bool {
	return c.Host != "" && c.FromEmail != ""
}
