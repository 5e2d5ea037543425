package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() ChecklistEntry {
	return ChecklistEntry{
		ID:           "chk_1",
		Date:         "2025-03-05",
		Type:         "Préventive",
		SerialNumber: "CAT-3512-001",
		HourCounter:  1250,
		Components:   UniformComponents(StatusGood),
		Observations: "",
		Photos:       []string{},
	}
}

func TestComponentStatus_AppearanceIsFixed(t *testing.T) {
	assert.Equal(t, RGB{39, 174, 96}, StatusGood.Appearance().Color)
	assert.Equal(t, "✓", StatusGood.Appearance().Glyph)
	assert.Equal(t, RGB{241, 196, 15}, StatusFair.Appearance().Color)
	assert.Equal(t, "⚠", StatusFair.Appearance().Glyph)
	assert.Equal(t, RGB{231, 76, 60}, StatusBad.Appearance().Color)
	assert.Equal(t, "✕", StatusBad.Appearance().Glyph)

	// 词表外的值回退为灰色，不报错。
	assert.Equal(t, UnknownAppearance, ComponentStatus("cassé").Appearance())
	assert.False(t, ComponentStatus("cassé").Valid())
	assert.Equal(t, -1, ComponentStatus("").Severity())
}

func TestSensorStatus_IsSeparateVocabulary(t *testing.T) {
	assert.True(t, SensorMissing.Valid())
	assert.False(t, ComponentStatus(SensorMissing).Valid())
	assert.False(t, SensorStatus(StatusFair).Valid())
	assert.Len(t, SensorStatuses(), 4)
}

func TestComponents_RowsCoverFixedKeySet(t *testing.T) {
	c := UniformComponents(StatusGood)
	require.NoError(t, c.Set(ComponentHoses, StatusBad))

	rows := c.Rows()
	require.Len(t, rows, 7)
	keys := make([]ComponentKey, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []ComponentKey{
		ComponentAdmission, ComponentGazoil, ComponentExhaust, ComponentHoses,
		ComponentStructure, ComponentChassis, ComponentSafetyEquipment,
	}, keys)
	assert.Equal(t, StatusBad, c.Get(ComponentHoses))
	assert.Equal(t, StatusBad, c.Worst())
}

func TestComponents_SetRejectsUnknownKeyAndStatus(t *testing.T) {
	c := UniformComponents(StatusGood)
	assert.Error(t, c.Set("turbo", StatusGood))
	assert.Error(t, c.Set(ComponentChassis, "neuf"))
	assert.Equal(t, StatusGood, c.Chassis)
}

func TestChecklistEntry_JSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(sampleEntry())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"id", "date", "type", "serialNumber", "hourCounter", "components", "observations", "photos"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "provenanceEngine")

	comps := m["components"].(map[string]any)
	assert.Len(t, comps, 7)
	assert.Equal(t, "bon", comps["safetyEquipment"])
}

func TestChecklistEntry_Validate(t *testing.T) {
	e := sampleEntry()
	require.NoError(t, e.Validate())

	e.HourCounter = 0
	assert.Error(t, e.Validate())

	e = sampleEntry()
	e.Components.Gazoil = ""
	assert.Error(t, e.Validate())

	e = sampleEntry()
	e.Date = "05/03/2025"
	assert.Error(t, e.Validate())
}

func TestDates(t *testing.T) {
	assert.Equal(t, "05 mars 2025", FormatDateFR("2025-03-05"))
	assert.Equal(t, "17 août 2024", FormatDateFR("2024-08-17"))
	assert.Equal(t, "05-03-2025", FormatDateFile("2025-03-05"))
	assert.Equal(t, "00-00-0000", FormatDateFile("bad"))
}

func TestMigrateLegacy_RequiresExplicitComponents(t *testing.T) {
	l := LegacyChecklist{
		ID:            "chk_legacy",
		Date:          "2024-11-02",
		ChecklistType: LegacyReception,
		Responsables:  Responsables{Electrical: "A. Benali", Workshop: "M. Idir", Inspector: "S. Haddad"},
		EngineInfo:    EngineInfo{SerialNumber: "SN-77", EcmNumber: "ECM-9", HMCurrent: 840},
		Items:         DefaultLegacyItems(),
	}
	require.NoError(t, l.Validate())

	_, err := MigrateLegacy(l, Components{})
	assert.Error(t, err)

	e, err := MigrateLegacy(l, UniformComponents(StatusFair))
	require.NoError(t, err)
	assert.Equal(t, l.ID, e.ID)
	assert.Equal(t, "Réception", e.Type)
	assert.Equal(t, "SN-77", e.SerialNumber)
	assert.Equal(t, 840, e.HourCounter)
	assert.Contains(t, e.Observations, "Démarreur: bon")
	assert.Contains(t, e.Observations, "ECM: ECM-9")
	assert.NotNil(t, e.Photos)
}

func TestIsTransferred(t *testing.T) {
	assert.True(t, IsTransferred(" transfert "))
	assert.False(t, IsTransferred("Préventive"))
}
