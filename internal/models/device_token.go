package models

// DeviceToken is a registered push target (FCM registration token).
type DeviceToken struct {
	BaseModel
	UserID   string `gorm:"type:uuid;not null;index"`
	Token    string `gorm:"not null;uniqueIndex"`
	Platform string `gorm:"type:varchar(10)"` // ios, android, web
}
