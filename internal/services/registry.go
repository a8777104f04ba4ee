package services

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService            AuthService
	TransactionService     TransactionService
	PartyService           PartyService
	DocumentRequestService DocumentRequestService
	MessageService         MessageService
	AccessTokenService     AccessTokenService
	UploadService          UploadService
	NotificationService    NotificationService
	DigestService          DigestService
}
