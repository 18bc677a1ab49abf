package request

// Request is one anonymization run, read from YAML or built from flags.
type Request struct {
	DatasetName   string   `yaml:"dataset_name"`
	Input         string   `yaml:"input" validate:"required_without=TrsGlob"`
	InputDir      string   `yaml:"input_dir" validate:"required"`
	OutputDir     string   `yaml:"output_dir" validate:"required"`
	TranscriptDir string   `yaml:"transcript_dir,omitempty"`
	Format        string   `yaml:"format,omitempty" validate:"omitempty,oneof=vertical vert trs"`
	TrsGlob       string   `yaml:"trs_glob,omitempty"`
	Encoding      string   `yaml:"encoding,omitempty"`
	ToneHz        float64  `yaml:"tone_hz,omitempty" validate:"gte=0"`
	Workers       int      `yaml:"workers,omitempty" validate:"gte=0,lte=256"`
	CheckOverlap  bool     `yaml:"check_overlap,omitempty"`
	VerifyOutput  bool     `yaml:"verify_output,omitempty"`
	Report        Report   `yaml:"report,omitempty"`
	Database      Database `yaml:"database,omitempty"`
	Bucket        Bucket   `yaml:"bucket,omitempty"`
	NotifyOk      []string `yaml:"notify_ok,omitempty"`
	NotifyErr     []string `yaml:"notify_err,omitempty"`
	NotifyAfter   int      `yaml:"notify_after_minutes,omitempty" validate:"gte=0"`
}

type Report struct {
	JSON string `yaml:"json,omitempty"`
	XLSX string `yaml:"xlsx,omitempty"`
}

type Database struct {
	Driver string `yaml:"driver,omitempty" validate:"omitempty,oneof=sqlite3 mysql"`
	DSN    string `yaml:"dsn,omitempty" validate:"required_with=Driver"`
}

type Bucket struct {
	Name   string `yaml:"name,omitempty"`
	Region string `yaml:"region,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

const DefaultToneHz = 440.0
