package ingest

import (
	"time"

	"tenderwatch/internal/normalize"
	"tenderwatch/models"
)

// SourceConfig describes one external feed: its attribution identity,
// its encoding quirks and its vocabulary tables. Vocabulary lookup is
// by slug of the raw value, so accents and casing in the feeds never
// matter.
type SourceConfig struct {
	// Name is the attribution name recorded on tenders; Country is the
	// attribution country, not necessarily the tender's.
	Name    string
	Country string

	// DateOffset compensates the timezone artifact in the feed's
	// timestamps.
	DateOffset time.Duration

	// CpvDelimiter separates codes in the cpvCodes field.
	CpvDelimiter string

	// RequireSourceURL rejects payloads without a sourceUrl.
	RequireSourceURL bool

	// ParentLookup widens identity resolution: the pool is looked up by
	// parentTenderId first and falls back to the expedient.
	ParentLookup bool

	// MinorContract marks every tender seen through this feed.
	MinorContract bool

	// Consultation extracts the preliminary market consultation
	// sub-record.
	Consultation bool

	// CountryCode / CurrencyName pin the tender's reference entities.
	// CurrencyFromPayload reads the currency name from the payload
	// instead (multi-currency feeds).
	CountryCode         string
	CurrencyName        string
	CurrencyFromPayload bool

	ContractTypes map[string]string
	Procedures    map[string]string
	// Statuses maps the feed's status vocabulary; nil passes the raw
	// status through unchanged.
	Statuses map[string]string
}

// MapContractType normalizes a raw contract type, falling back to the
// undefined sentinel.
func (c *SourceConfig) MapContractType(raw string) string {
	return lookupVocab(c.ContractTypes, raw, models.ContractTypeUndefined)
}

// MapProcedure normalizes a raw procedure, falling back to "Otros".
func (c *SourceConfig) MapProcedure(raw string) string {
	return lookupVocab(c.Procedures, raw, models.ProcedureOther)
}

// MapStatus normalizes a raw status when the source carries its own
// status vocabulary; otherwise the raw value is canonical already.
func (c *SourceConfig) MapStatus(raw string) string {
	if c.Statuses == nil {
		return raw
	}
	return lookupVocab(c.Statuses, raw, models.StatusUndefined)
}

func lookupVocab(table map[string]string, raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	if v, ok := table[normalize.Slugify(raw)]; ok {
		return v
	}
	return fallback
}

// spainContractTypes is shared by every Spanish-language feed.
var spainContractTypes = map[string]string{
	"suministros":             "Suministros",
	"servicios":               "Servicios",
	"obras":                   "Obras",
	"administrativo-especial": "Administrativo especial",
	"privado":                 "Privado",
	"gestion-de-servicios-publicos": "Gestión de Servicios Públicos",
	"concesion-de-servicios":        "Concesión de Servicios",
	"concesion-de-obras-publicas":   "Concesión de Obras Públicas",
	"concesion-de-obras":            "Concesión de Obras",
	"colaboracion-entre-el-sector-publico-y-sector-privado": "Colaboración entre el sector público y sector privado",
	"patrimonial": "Patrimonial",
	"no-definido": "No definido",
}

var spainProcedures = map[string]string{
	"abierto":                      "Abierto",
	"abierto-simplificado":         "Abierto simplificado",
	"asociacion-para-la-innovacion": "Asociación para la innovación",
	"basado-en-acuerdo-marco":      "Basado en Acuerdo Marco",
	"basado-en-sistema-dinamico-de-adquisicion": "Basado en sistema dinámico de adquisición",
	"concurso-de-proyectos":                     "Concurso de proyectos",
	"derivado-de-asociacion-para-la-innovacion": "Derivado de asociación para la innovación",
	"derivado-de-acuerdo-marco":                 "Derivado de acuerdo marco",
	"dialogo-competitivo":                       "Diálogo competitivo",
	"instruccion-interna-de-contratacion":       "Instrucción interna de contratación",
	"licitacion-con-negociacion":                "Licitación con negociación",
	"negociado-con-publicidad":                  "Negociado con publicidad",
	"negociado-sin-publicidad":                  "Negociado sin publicidad",
	"normas-internas":                           "Normas Internas",
	"contrato-menor":                            "Contrato Menor",
	"otros":                                     "Otros",
	"restringido":                               "Restringido",
	"simplificado":                              "Simplificado",
}

// gencatContractTypes carries the Catalan vocabulary alongside the
// shared Spanish entries the portal also emits.
var gencatContractTypes = map[string]string{
	"subministraments":        "Suministros",
	"serveis":                 "Servicios",
	"obres":                   "Obras",
	"administrativo-especial": "Administrativo especial",
	"privado":                 "Privado",
	"gestion-de-servicios-publicos": "Gestión de Servicios Públicos",
	"concesion-de-servicios":        "Concesión de Servicios",
	"concesion-de-obras-publicas":   "Concesión de Obras Públicas",
	"concesion-de-obras":            "Concesión de Obras",
	"colaboracion-entre-el-sector-publico-y-sector-privado": "Colaboración entre el sector público y sector privado",
	"patrimonial": "Patrimonial",
	"no-definido": "No definido",
}

var gencatProcedures = map[string]string{
	"obert":                        "Abierto",
	"obert-simplificat":            "Abierto simplificado",
	"obert-simplificat-abreujat":   "Abierto simplificado abreviado",
	"asociacion-para-la-innovacion": "Asociación para la innovación",
	"basado-en-acuerdo-marco":      "Basado en Acuerdo Marco",
	"basado-en-sistema-dinamico-de-adquisicion": "Basado en sistema dinámico de adquisición",
	"concurso-de-proyectos":                     "Concurso de proyectos",
	"derivado-de-asociacion-para-la-innovacion": "Derivado de asociación para la innovación",
	"derivado-de-acuerdo-marco":                 "Derivado de acuerdo marco",
	"dialogo-competitivo":                       "Diálogo competitivo",
	"instruccion-interna-de-contratacion":       "Instrucción interna de contratación",
	"licitacion-con-negociacion":                "Licitación con negociación",
	"negociado-con-publicidad":                  "Negociado con publicidad",
	"negociado-sin-publicidad":                  "Negociado sin publicidad",
	"normas-internas":                           "Normas Internas",
	"contracte-menor":                           "Contrato Menor",
	"otros":                                     "Otros",
	"restringido":                               "Restringido",
	"simplificado":                              "Simplificado",
}

var gencatStatuses = map[string]string{
	"creada":                 "Creada",
	"anunci-previ":           "Anuncio Previo",
	"anunci-de-licitacio":    "Anuncio de Licitación",
	"publicada":              "Publicada",
	"evaluacio-previa":       "Evaluación Previa",
	"evaluacio":              "Evaluación",
	"adjudicada":             "Adjudicada",
	"parcialment-adjudicada": "Parcialmente Adjudicada",
	"resolucio-provisional":  "Resolución Provisional",
	"resolta":                "Resuelta",
	"parcialment-resolta":    "Parcialmente Resuelta",
	"desistida":              "Desistida",
	"tancada":                "Cerrada",
	"anulada":                "Anulada",
	"realitzada":             "Realizada",
	"no-definit":             "No definido",
}

var tedContractTypes = map[string]string{
	"contratos-combinados": "Contratos Combinados",
	"suministros":          "Suministros",
	"obras":                "Obras",
	"servicios":            "Servicios",
	"no-procede":           "No definido",
}

var tedProcedures = map[string]string{
	"procedimiento-abierto": "Abierto",
	"adjudicacion-de-concesion-sin-anuncio-previo-de-concesion": "Adjudicación",
	"adjudicacion-de-contrato-sin-publicacion-previa":           "Adjudicación",
	"adjudicacion-directa":                                      "Adjudicación",
	"asociacion-para-la-innovacion":                             "Asociación para la innovación",
	"dialogo-competitivo":                                       "Diálogo competitivo",
	"licitacion-publica":                                        "Licitación pública",
	"procedimiento-de-licitacion-con-negociacion":               "Licitación con negociación",
	"procedimiento-negociado-sin-convocatoria-de-licitacion":    "Negociado sin publicidad",
	"otro-procedimiento-de-multiples-etapas":                    "Otros",
	"otro-procedimiento-de-una-sola-etapa":                      "Otros",
	"procedimiento-de-adjudicacion-de-concesion":                "Adjudicación",
	"prodecimiento-negociado":                                   "Negociado con publicidad",
	"procedimiento-restringido":                                 "Restringido",
	"no-procede":                                                "No definido",
}

var dreContractTypes = map[string]string{
	"fornecimentos": "Suministros",
	"servicos":      "Servicios",
	"obras":         "Obras",
}

// The seven feed configurations. Keyed by URL path segment in the HTTP
// layer.
var (
	SourceContratacion = SourceConfig{
		Name:             "Plataforma de Contratación del Sector Público",
		Country:          "Spain",
		DateOffset:       time.Hour,
		CpvDelimiter:     ".",
		RequireSourceURL: true,
		CountryCode:      "ES",
		CurrencyName:     "Euro",
		ContractTypes:    spainContractTypes,
		Procedures:       spainProcedures,
	}

	SourceConsultas = SourceConfig{
		Name:             "Plataforma de Contratación del Sector Público",
		Country:          "Spain",
		DateOffset:       2 * time.Hour,
		CpvDelimiter:     ".",
		RequireSourceURL: true,
		Consultation:     true,
		CountryCode:      "ES",
		CurrencyName:     "Euro",
		ContractTypes:    spainContractTypes,
		Procedures:       spainProcedures,
	}

	SourceMenores = SourceConfig{
		Name:             "Contratos Menores",
		Country:          "Spain",
		DateOffset:       time.Hour,
		CpvDelimiter:     ".",
		RequireSourceURL: true,
		MinorContract:    true,
		CountryCode:      "ES",
		CurrencyName:     "Euro",
		ContractTypes:    spainContractTypes,
		Procedures:       spainProcedures,
	}

	SourceBoe = SourceConfig{
		Name:             "Boletín Oficial del Estado",
		Country:          "Spain",
		DateOffset:       time.Hour,
		CpvDelimiter:     ",",
		RequireSourceURL: true,
		CountryCode:      "ES",
		CurrencyName:     "Euro",
		ContractTypes:    spainContractTypes,
		Procedures:       spainProcedures,
	}

	SourceGencat = SourceConfig{
		Name:             "Gencat",
		Country:          "Spain",
		DateOffset:       time.Hour,
		CpvDelimiter:     ",",
		RequireSourceURL: true,
		CountryCode:      "ES",
		CurrencyName:     "Euro",
		ContractTypes:    gencatContractTypes,
		Procedures:       gencatProcedures,
		Statuses:         gencatStatuses,
	}

	SourceDre = SourceConfig{
		Name:          "Diário da República Electrónico",
		Country:       "Portugal",
		DateOffset:    time.Hour,
		CpvDelimiter:  ",",
		ParentLookup:  true,
		ContractTypes: dreContractTypes,
	}

	SourceTed = SourceConfig{
		Name:                "Tenders Electronic Daily",
		Country:             "Europe",
		DateOffset:          time.Hour,
		CpvDelimiter:        ",",
		ParentLookup:        true,
		CurrencyFromPayload: true,
		ContractTypes:       tedContractTypes,
		Procedures:          tedProcedures,
	}
)

// Sources indexes the feed configurations by their route name.
var Sources = map[string]*SourceConfig{
	"contratacion": &SourceContratacion,
	"consultas":    &SourceConsultas,
	"menores":      &SourceMenores,
	"boe":          &SourceBoe,
	"gencat":       &SourceGencat,
	"dre":          &SourceDre,
	"ted":          &SourceTed,
}
