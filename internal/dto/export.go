package dto

// ExportFormat selects the rendering of the request register export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportQuery holds the register export parameters.
type ExportQuery struct {
	Format ExportFormat
	Status string
	Search string
}
