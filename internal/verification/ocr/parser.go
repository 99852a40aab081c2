package ocr

import (
	"regexp"
	"strings"
)

// DocumentClass selects the parsing rules for a document's raw text.
type DocumentClass string

const (
	ClassNIN     DocumentClass = "nin"
	ClassLicense DocumentClass = "license"
	ClassUtility DocumentClass = "utility"
)

// ClassForDocumentType maps submitted document types onto parsing classes.
func ClassForDocumentType(documentType string) (DocumentClass, bool) {
	switch documentType {
	case "national_id":
		return ClassNIN, true
	case "license":
		return ClassLicense, true
	case "utility":
		return ClassUtility, true
	}
	return "", false
}

// Label-anchored patterns. OCR output is noisy, so values are matched loosely
// to end of line and trimmed; an absent label simply omits the field.
var (
	ninPatterns = map[string]*regexp.Regexp{
		"nin":           regexp.MustCompile(`(?im)^\s*NIN[:\s]+([A-Z0-9]+)\s*$`),
		"first_name":    regexp.MustCompile(`(?im)^\s*First\s*Name[:\s]+(.+)$`),
		"surname":       regexp.MustCompile(`(?im)^\s*Surname[:\s]+(.+)$`),
		"date_of_birth": regexp.MustCompile(`(?im)^\s*(?:Date\s*of\s*Birth|DOB)[:\s]+(\d{4}-\d{2}-\d{2})`),
		"phone":         regexp.MustCompile(`(?im)^\s*Phone[:\s]+(\+?[0-9][0-9\s-]{6,})$`),
	}

	licensePatterns = map[string]*regexp.Regexp{
		"license_number": regexp.MustCompile(`(?im)^\s*License\s*No\.?[:\s]+([A-Z0-9-]+)\s*$`),
		"expiry_date":    regexp.MustCompile(`(?im)^\s*Expiry(?:\s*Date)?[:\s]+(\d{4}-\d{2}-\d{2})`),
	}

	utilityPatterns = map[string]*regexp.Regexp{
		"account_number": regexp.MustCompile(`(?im)^\s*Account\s*No\.?[:\s]+([A-Z0-9-]+)\s*$`),
		"amount":         regexp.MustCompile(`(?im)^\s*Amount(?:\s*Due)?[:\s]+([0-9,.]+)\s*$`),
	}

	classPatterns = map[DocumentClass]map[string]*regexp.Regexp{
		ClassNIN:     ninPatterns,
		ClassLicense: licensePatterns,
		ClassUtility: utilityPatterns,
	}
)

// ParseDocumentText extracts the typed fields for a document class. Fields
// whose labels are absent are omitted from the map rather than failing.
func ParseDocumentText(raw string, class DocumentClass) map[string]string {
	fields := make(map[string]string)
	patterns, ok := classPatterns[class]
	if !ok || raw == "" {
		return fields
	}
	for name, pattern := range patterns {
		if match := pattern.FindStringSubmatch(raw); match != nil {
			value := strings.TrimSpace(match[1])
			if value != "" {
				fields[name] = value
			}
		}
	}
	return fields
}
