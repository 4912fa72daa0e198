package models

// RejectionReason is a suggested reason offered to admins; custom text is also accepted
type RejectionReason struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// RejectionReasons lists the common reasons per target type
var RejectionReasons = map[TargetType][]RejectionReason{
	TargetUser: {
		{Code: "incomplete_profile", Label: "Incomplete profile information"},
		{Code: "invalid_contact", Label: "Invalid contact details"},
		{Code: "duplicate_account", Label: "Duplicate account"},
		{Code: "policy_violation", Label: "Violation of terms of service"},
	},
	TargetProvider: {
		{Code: "incomplete_documentation", Label: "Incomplete documentation"},
		{Code: "unverifiable_business", Label: "Business details could not be verified"},
		{Code: "invalid_license", Label: "Invalid or expired license"},
		{Code: "policy_violation", Label: "Violation of terms of service"},
	},
	TargetProperty: {
		{Code: "poor_images", Label: "Images are missing or of poor quality"},
		{Code: "incomplete_details", Label: "Listing details are incomplete"},
		{Code: "inaccurate_price", Label: "Price appears inaccurate"},
		{Code: "duplicate_listing", Label: "Duplicate listing"},
		{Code: "prohibited_content", Label: "Prohibited content"},
		{Code: "missing_documents", Label: "Ownership documents missing"},
	},
	TargetPlan: {
		{Code: "low_quality_drawings", Label: "Drawings are unclear or low quality"},
		{Code: "incomplete_specification", Label: "Specification is incomplete"},
		{Code: "copyright_concern", Label: "Possible copyright concern"},
	},
}
