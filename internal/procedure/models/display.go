package models

// Display is the label and badge class a flow renders with.
type Display struct {
	Label string `json:"label"`
	Class string `json:"class"`
}

// AreaDisplay labels f as seen from the area holding it. A branch marked for
// finalization already reads as finalized there.
func AreaDisplay(f *Flow) Display {
	return display(f, Display{Label: "Finalizado", Class: "text-bg-dark"})
}

// GlobalDisplay labels f for history views, where a branch marked for
// finalization is still pending.
func GlobalDisplay(f *Flow) Display {
	return display(f, Display{Label: "Por finalizar", Class: "text-bg-dark"})
}

func display(f *Flow, toFinalize Display) Display {
	if f.Status == StatusObserved {
		return Display{Label: "Observado", Class: "text-bg-warning"}
	}
	if f.IsToFinalize {
		return toFinalize
	}
	switch f.Status {
	case StatusFinalized:
		return Display{Label: "Finalizado", Class: "text-bg-dark"}
	case StatusSent:
		return Display{Label: "Enviado", Class: "text-bg-primary"}
	case StatusReceived:
		return Display{Label: "Recepcionado", Class: "text-bg-info"}
	case StatusRejected:
		return Display{Label: "Rechazado", Class: "text-bg-danger"}
	}
	label := string(f.Status)
	if label == "" {
		label = "-"
	}
	return Display{Label: label, Class: "text-bg-secondary"}
}
