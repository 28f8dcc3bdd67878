package drilldowns

import "fmt"

const (
	welcomeMessageStorageKey = "drilldowns:hidWelcomeMessage"

	msgInsufficientLicense = "This drilldown type requires a higher license level."

	toastCreatedText  = "Your drilldown is saved and will run on the triggers you picked."
	toastUpdatedTitle = "Drilldown saved"
	toastUpdatedText  = "Your changes are saved."
	toastCRUDError    = "Error saving drilldown"
	toastDeleteError  = "Error deleting drilldowns"
)

func msgInvalidDrilldownType(factoryID string) string {
	return fmt.Sprintf("Invalid drilldown type %q", factoryID)
}

func toastCreatedTitle(name string) string {
	return fmt.Sprintf("Drilldown %q created", name)
}

func toastDeletedTitle(count int) string {
	if count == 1 {
		return "Drilldown deleted"
	}

	return fmt.Sprintf("%d drilldowns deleted", count)
}
