package email

// Message представляет структуру email сообщения
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}
