package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler            *AuthHandler
	TransactionHandler     *TransactionHandler
	PartyHandler           *PartyHandler
	DocumentRequestHandler *DocumentRequestHandler
	MessageHandler         *MessageHandler
	UploadHandler          *UploadHandler
	TrackerHandler         *TrackerHandler
	NotificationHandler    *NotificationHandler
	FileHandler            *FileHandler
}
