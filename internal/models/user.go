package models

// User is any person known to the system. Negotiators register with a
// password; party users are created on invite and have an empty hash,
// they reach their transactions through tracker links instead.
type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null"`
	Name         string   `gorm:"not null"`
	PasswordHash string   `gorm:"default:''"`
	Role         UserRole `gorm:"type:varchar(20);not null;default:'participant'"`

	// Relations
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID"`
	DeviceTokens  []DeviceToken  `gorm:"foreignKey:UserID"`
}
