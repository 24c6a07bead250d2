// Package domain contains the value types exchanged by the answer pipeline: the
// incoming AnswerRequest, the StructuredAnswer parsed from model output, and the
// ResponseStructure returned on every pipeline exit. It has no dependencies on
// infrastructure or on any provider.
package domain
