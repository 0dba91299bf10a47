package scoring

// TierLabel 优先级标签
func TierLabel(tier int) string {
	switch tier {
	case 1:
		return "Prioridad 1 - Muy alta"
	case 2:
		return "Prioridad 2 - Alta"
	case 3:
		return "Prioridad 3 - Moderada"
	case 4:
		return "Prioridad 4 - Baja"
	case 5:
		return "Prioridad 5 - Muy baja"
	}
	return "Sin clasificar"
}

var recommendations = map[int][]string{
	1: {
		"Valoración preferente por la unidad multidisciplinar en menos de 7 días",
		"Evaluar soporte ventilatorio y nutricional de forma urgente",
		"Activar coordinación con cuidados paliativos y trabajo social",
	},
	2: {
		"Revisión por la unidad multidisciplinar en menos de 15 días",
		"Valorar indicación de VMNI y gastrostomía",
		"Reforzar ayudas técnicas y adaptación del domicilio",
	},
	3: {
		"Seguimiento programado cada 4-6 semanas",
		"Fisioterapia y logopedia según afectación",
		"Educación al cuidador principal",
	},
	4: {
		"Seguimiento programado cada 2-3 meses",
		"Programa de ejercicio adaptado",
	},
	5: {
		"Seguimiento habitual cada 3 meses",
		"Información sobre recursos y asociaciones de pacientes",
	},
}

// Recommendations 与 tier 绑定的静态建议（返回副本）
func Recommendations(tier int) []string {
	r := recommendations[tier]
	out := make([]string, len(r))
	copy(out, r)
	return out
}
