package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// OCR config
	OCR OCRConfig `yaml:"ocr"`

	// PDF rasterizer config
	PDF PDFConfig `yaml:"pdf"`

	// Mark-sheet grammar config
	Grading GradingConfig `yaml:"grading"`

	// AI config (vision oracles)
	AI AIConfig `yaml:"ai"`

	// Export config
	Export ExportConfig `yaml:"export"`

	// Log level: "debug", "info", "warn" or "error"
	LogLevel string `yaml:"log_level"`
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	Engine   string `yaml:"engine"`   // "tesseract", "openai", "gemini" or "ollama"
	Language string `yaml:"language"` // OCR language (default: "eng")
	Workers  int    `yaml:"workers"`  // Pages recognized concurrently (default: 1)
}

// PDFConfig selects how PDF pages are turned into images
type PDFConfig struct {
	Rasterizer string `yaml:"rasterizer"` // "auto", "pdftoppm" or "embedded"
	DPI        int    `yaml:"dpi"`        // Render resolution for pdftoppm
}

// GradingConfig holds the institution-specific grammar settings
type GradingConfig struct {
	EnrollmentPrefix string `yaml:"enrollment_prefix"` // Default: "0801"
}

// ExportConfig holds workbook export settings
type ExportConfig struct {
	Filename string `yaml:"filename"` // Default: "student-marks.xlsx"
}

// AIConfig represents AI provider configuration
type AIConfig struct {
	// OpenAI
	OpenAI OpenAIConfig `yaml:"openai"`

	// Gemini
	Gemini GeminiConfig `yaml:"gemini"`

	// Ollama (local)
	Ollama OllamaConfig `yaml:"ollama"`
}

// OpenAIConfig for OpenAI/Azure OpenAI
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`              // Default: "gpt-4o"
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-1.5-flash"
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://localhost:11434"
	Model   string `yaml:"model"`    // e.g., "llava"
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() Config {
	return Config{
		Port: 8080,
		Host: "0.0.0.0",
		OCR: OCRConfig{
			Engine:   "tesseract",
			Language: "eng",
			Workers:  1,
		},
		PDF: PDFConfig{
			Rasterizer: "auto",
			DPI:        300,
		},
		Grading: GradingConfig{
			EnrollmentPrefix: "0801",
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{Model: "gpt-4o"},
			Gemini: GeminiConfig{Model: "gemini-1.5-flash"},
			Ollama: OllamaConfig{BaseURL: "http://localhost:11434", Model: "llava"},
		},
		Export: ExportConfig{
			Filename: "student-marks.xlsx",
		},
		LogLevel: "info",
	}
}
