package models

// Upload is a stored file reference. The engine never looks inside the
// file; extraction and rendering are external concerns. An upload may
// satisfy a DocumentRequest via DocumentRequestID.
type Upload struct {
	BaseModel
	TransactionID     string  `gorm:"type:uuid;not null;index"`
	DocumentRequestID *string `gorm:"type:uuid;index"`
	UploaderID        string  `gorm:"type:uuid;not null;index"`
	DocType           string
	OriginalName      string `gorm:"column:original_name"` // filename as sent by the user
	Path              string `gorm:"not null"`             // storage key
	URL               string `gorm:"column:url"`           // public URL when visibility allows
	MimeType          string
	Size              int64
	Visibility        UploadVisibility `gorm:"type:varchar(20);not null;default:'shared'"`

	// Relations
	Uploader *User `gorm:"foreignKey:UploaderID"`
}
