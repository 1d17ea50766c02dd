package domain

// Situation is the status label shown to end users, derived from the raw
// status, the timestamps and the aggregated detail value.
type Situation string

const (
	SituationValorizadoFinalizado Situation = "VALORIZADO_E_FINALIZADO"
	SituationAndamento            Situation = "ANDAMENTO"
	SituationExecutado            Situation = "EXECUTADO"
	SituationFinalizada           Situation = "FINALIZADA"
	SituationEmBranco             Situation = "EM_BRANCO"
	SituationOutro                Situation = "OUTRO"
)

// Situations lists every label in classification precedence order.
var Situations = []Situation{
	SituationValorizadoFinalizado,
	SituationAndamento,
	SituationExecutado,
	SituationFinalizada,
	SituationEmBranco,
	SituationOutro,
}

var situationLabels = map[Situation]string{
	SituationValorizadoFinalizado: "VALORIZADO E FINALIZADO",
	SituationAndamento:            "ANDAMENTO",
	SituationExecutado:            "EXECUTADO",
	SituationFinalizada:           "FINALIZADA",
	SituationEmBranco:             "EM BRANCO",
	SituationOutro:                "OUTRO",
}

// Label returns the display text used by the dashboard.
func (s Situation) Label() string {
	if label, ok := situationLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseSituation accepts either the constant name or its display label.
func ParseSituation(s string) (Situation, bool) {
	norm := NormalizeStatus(s)
	for _, sit := range Situations {
		if norm == string(sit) || norm == sit.Label() {
			return sit, true
		}
	}
	return "", false
}

// Classify assigns a Situation. Rules are evaluated in order and the first
// match wins; rule 1 must precede rule 4 since both require FINALIZADA with a
// completion timestamp and only the total value tells them apart.
func Classify(totalValue float64, status string, hasStart, hasFinish bool) Situation {
	valorized := totalValue > 0
	finalizada := IsFinalizada(status)

	switch {
	case valorized && finalizada && hasFinish:
		return SituationValorizadoFinalizado
	case hasStart && !hasFinish:
		return SituationAndamento
	case valorized && !hasFinish:
		return SituationExecutado
	case finalizada && hasFinish:
		return SituationFinalizada
	case !hasStart && !hasFinish:
		return SituationEmBranco
	default:
		return SituationOutro
	}
}
