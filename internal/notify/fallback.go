package notify

import "fmt"

// Fallback returns the fixed message used when generation fails. It never
// returns an empty string.
func Fallback(req Request) string {
	guardian := orDefault(req.GuardianName, "padre de familia")
	student := orDefault(req.StudentName, "su hijo(a)")
	if req.Kind == KindPresent {
		return fmt.Sprintf("Hola %s, le informamos que %s ingresó a las %s.", guardian, student, orDefault(req.Time, "--:--"))
	}
	return fmt.Sprintf("Hola %s, le informamos que %s no se ha presentado hoy. Por favor contacte a la institución.", guardian, student)
}

// Prompt builds the generator instruction for a request.
func Prompt(req Request) string {
	if req.Kind == KindPresent {
		return fmt.Sprintf("Genera un mensaje corto y profesional para un padre de familia llamado %s informando que su hijo(a) %s ha ingresado a la institución a las %s. El tono debe ser informativo y tranquilizador.",
			req.GuardianName, req.StudentName, req.Time)
	}
	return fmt.Sprintf("Genera un mensaje urgente pero cordial para un padre de familia llamado %s informando que su hijo(a) %s no se ha registrado en la institución hoy. Solicita amablemente que se comunique para justificar la inasistencia.",
		req.GuardianName, req.StudentName)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
