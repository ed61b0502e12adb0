package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapContractTypeSpain(t *testing.T) {
	require.Equal(t, "Suministros", SourceMenores.MapContractType("Suministros"))
	require.Equal(t, "Concesión de Obras Públicas",
		SourceMenores.MapContractType("Concesión de Obras Públicas"))
	require.Equal(t, "No definido", SourceMenores.MapContractType(""))
	require.Equal(t, "No definido", SourceMenores.MapContractType("algo desconocido"))
}

func TestMapContractTypeAccentInsensitive(t *testing.T) {
	// Slug lookup makes accents and casing irrelevant.
	require.Equal(t, "Gestión de Servicios Públicos",
		SourceBoe.MapContractType("GESTION DE SERVICIOS PUBLICOS"))
}

func TestMapContractTypePortugal(t *testing.T) {
	require.Equal(t, "Suministros", SourceDre.MapContractType("Fornecimentos"))
	require.Equal(t, "Servicios", SourceDre.MapContractType("Serviços"))
	require.Equal(t, "Obras", SourceDre.MapContractType("Obras"))
	require.Equal(t, "No definido", SourceDre.MapContractType("Outro"))
}

func TestMapContractTypeCatalan(t *testing.T) {
	require.Equal(t, "Suministros", SourceGencat.MapContractType("Subministraments"))
	require.Equal(t, "Servicios", SourceGencat.MapContractType("Serveis"))
	require.Equal(t, "Obras", SourceGencat.MapContractType("Obres"))
}

func TestMapProcedure(t *testing.T) {
	require.Equal(t, "Abierto", SourceContratacion.MapProcedure("Abierto"))
	require.Equal(t, "Contrato Menor", SourceMenores.MapProcedure("Contrato menor"))
	require.Equal(t, "Abierto", SourceGencat.MapProcedure("Obert"))
	require.Equal(t, "Abierto simplificado abreviado",
		SourceGencat.MapProcedure("Obert simplificat abreujat"))
	require.Equal(t, "Abierto", SourceTed.MapProcedure("Procedimiento abierto"))
	require.Equal(t, "Adjudicación", SourceTed.MapProcedure("Adjudicación directa"))
	require.Equal(t, "Otros", SourceContratacion.MapProcedure(""))
	require.Equal(t, "Otros", SourceContratacion.MapProcedure("cosa rara"))

	// TED reports "no procede" as explicitly undefined, not "other".
	require.Equal(t, "No definido", SourceTed.MapProcedure("No procede"))
}

func TestMapStatus(t *testing.T) {
	// Only the Catalan portal carries its own status vocabulary.
	require.Equal(t, "Adjudicada", SourceGencat.MapStatus("Adjudicada"))
	require.Equal(t, "Anuncio de Licitación", SourceGencat.MapStatus("Anunci de licitació"))
	require.Equal(t, "Cerrada", SourceGencat.MapStatus("Tancada"))
	require.Equal(t, "No definido", SourceGencat.MapStatus("estat estrany"))
	require.Equal(t, "No definido", SourceGencat.MapStatus(""))

	// Everyone else passes the status through.
	require.Equal(t, "Publicada", SourceBoe.MapStatus("Publicada"))
	require.Equal(t, "", SourceBoe.MapStatus(""))
}

func TestSourceConfigShape(t *testing.T) {
	require.Len(t, Sources, 7)

	// Plataforma feeds split on ".", the rest on ",".
	require.Equal(t, ".", SourceContratacion.CpvDelimiter)
	require.Equal(t, ".", SourceConsultas.CpvDelimiter)
	require.Equal(t, ".", SourceMenores.CpvDelimiter)
	require.Equal(t, ",", SourceBoe.CpvDelimiter)
	require.Equal(t, ",", SourceTed.CpvDelimiter)

	// The consultation feed runs two hours ahead of the others.
	for name, cfg := range Sources {
		if name == "consultas" {
			require.Equal(t, 2, int(cfg.DateOffset.Hours()))
			continue
		}
		require.Equal(t, 1, int(cfg.DateOffset.Hours()), name)
	}

	// Cross-border feeds resolve identity through the parent expedient
	// and do not require a sourceUrl.
	require.True(t, SourceDre.ParentLookup)
	require.True(t, SourceTed.ParentLookup)
	require.False(t, SourceDre.RequireSourceURL)
	require.False(t, SourceTed.RequireSourceURL)

	require.True(t, SourceMenores.MinorContract)
	require.True(t, SourceConsultas.Consultation)
}
