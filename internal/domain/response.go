package domain

// Header is a markdown heading found in rendered content.
type Header struct {
	Text     string `json:"text" validate:"required"`
	Level    int    `json:"level" validate:"gte=1,lte=6"`
	HasEmoji bool   `json:"hasEmoji"`
}

// SectionSummary describes one level-2 section of rendered content.
type SectionSummary struct {
	Title          string `json:"title" validate:"required"`
	WordCount      int    `json:"wordCount" validate:"gte=0"`
	HasSubsections bool   `json:"hasSubsections"`
}

// DocumentStructure is derived by scanning rendered markdown.
type DocumentStructure struct {
	Headers    []Header         `json:"headers" validate:"dive"`
	Sections   []SectionSummary `json:"sections" validate:"dive"`
	Lists      int              `json:"lists" validate:"gte=0"`
	Tables     int              `json:"tables" validate:"gte=0"`
	CodeBlocks []string         `json:"codeBlocks"`
}

// Content is the rendered answer and its structure.
type Content struct {
	Markdown  string            `json:"markdown" validate:"required"`
	Structure DocumentStructure `json:"structure"`
}

// QualityBreakdown holds the per-criterion scores, each in [0,1].
type QualityBreakdown struct {
	Title      float64 `json:"title" validate:"gte=0,lte=1"`
	Summary    float64 `json:"summary" validate:"gte=0,lte=1"`
	Headers    float64 `json:"headers" validate:"gte=0,lte=1"`
	CodeFences float64 `json:"codeFences" validate:"gte=0,lte=1"`
}

// QualityAssessment is the weighted quality score of the rendered answer.
type QualityAssessment struct {
	OverallScore float64          `json:"overallScore" validate:"gte=0,lte=1"`
	Breakdown    QualityBreakdown `json:"breakdown"`
}

// ProcessingMetadata records what the pipeline did to produce a response.
type ProcessingMetadata struct {
	StepsCompleted []string `json:"stepsCompleted" validate:"required,min=1,dive,required"`
	Warnings       []string `json:"warnings"`
	Optimizations  []string `json:"optimizations"`
}

// ResponseStructure is the shape returned on every pipeline exit.
type ResponseStructure struct {
	Content            Content            `json:"content"`
	QualityAssessment  QualityAssessment  `json:"qualityAssessment"`
	ProcessingMetadata ProcessingMetadata `json:"processingMetadata"`
}
