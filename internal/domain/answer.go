package domain

// CodeBlock is a fenced code sample inside a section.
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Code     string `json:"code" validate:"required"`
	Caption  string `json:"caption,omitempty"`
}

// Section is one titled part of a structured answer.
type Section struct {
	Heading    string      `json:"heading" validate:"required"`
	Body       string      `json:"body" validate:"required"`
	CodeBlocks []CodeBlock `json:"codeBlocks,omitempty" validate:"omitempty,dive"`
}

// StructuredAnswer is the document the model is asked to produce.
type StructuredAnswer struct {
	Title      string    `json:"title" validate:"required"`
	Summary    string    `json:"summary" validate:"required"`
	Sections   []Section `json:"sections" validate:"required,min=1,dive"`
	References []string  `json:"references,omitempty" validate:"omitempty,dive,required"`
}
