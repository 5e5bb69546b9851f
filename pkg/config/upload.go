package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

var UploadContexts = map[string]UploadConfig{
	"equipment_image": {
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/webp", "image/jpg"},
		MaxSizeMB:        10,
		PathPrefix:       "equipment",
	},
	"group_image": {
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/svg+xml", "image/webp", "image/jpg"},
		MaxSizeMB:        2,
		PathPrefix:       "groups",
	},
}
