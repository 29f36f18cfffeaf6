// Package monday reads sprint-tracking board exports and maps their rows onto typed records.
package monday

// Column names as they appear in a board export.
const (
	ColName            = "Name"
	ColStatus          = "Estado"
	ColTaskType        = "Tipo Tarea"
	ColEstimated       = "Estimación Original"
	ColStartDate       = "Fecha Inicio"
	ColSprint          = "Sprint"
	ColSprintCompleted = "Sprint Completed?"
	ColQAStatus        = "Estado QA"
	ColUATStatus       = "Estado UAT"
	ColAchieved        = "Puntos Logrados"
	ColReadyDate       = "Fecha Ready for Production"
	ColProductionDate  = "Fecha paso a Producción"
	ColCompletionDate  = "Fecha Término"
	ColCertifiedDate   = "Fecha Certificado QA"
	ColUATCycles       = "Ciclos UAT"
	ColCarryOver       = "Carry over"
	ColAssignee        = "Asignado"
)

// RequiredColumns must be present for an export to load.
var RequiredColumns = []string{
	ColName,
	ColStatus,
	ColTaskType,
	ColEstimated,
	ColStartDate,
	ColSprint,
}

// OptionalColumns are synthesized with empty values when absent.
var OptionalColumns = []string{
	ColQAStatus,
	ColUATStatus,
	ColAchieved,
	ColReadyDate,
	ColProductionDate,
	ColUATCycles,
	ColCarryOver,
}

// CriticalColumns are reported with completion statistics by the validation report.
var CriticalColumns = []string{
	ColSprint,
	ColStatus,
	ColEstimated,
	ColAchieved,
	ColStartDate,
	ColReadyDate,
}

// HeaderRenames corrects known misspellings in exported headers.
var HeaderRenames = map[string]string{
	"Asigando": ColAssignee,
}

// datePrefix marks a column as holding dates.
const datePrefix = "Fecha"
