package fronius

import (
	"time"

	"github.com/nerrad567/gray-logic-solar/internal/telemetry"
)

// Measurement names written to the store.
const (
	SiteMeasurement  = "SiteValues"
	MeterMeasurement = "MeterValues"
)

// SiteRecord is the site-level power-flow snapshot.
//
// Nullable device values are *float64; nil means the device sent null
// (e.g. P_Akku without a battery, P_PV at night).
type SiteRecord struct {
	Time       time.Time
	DeviceTime string
	Version    string

	EDay   *float64
	ETotal *float64
	EYear  *float64

	MeterLocation string
	Mode          string

	PAkku              *float64
	PGrid              *float64
	PLoad              *float64
	PPV                *float64
	RelAutonomy        *float64
	RelSelfConsumption *float64
}

// Measurement converts the record into the SiteValues measurement.
func (r SiteRecord) Measurement(location string) telemetry.Measurement {
	fields := make(map[string]any, 6)
	putField(fields, "P_Akku", r.PAkku)
	putField(fields, "P_Grid", r.PGrid)
	putField(fields, "P_PV", r.PPV)
	putField(fields, "P_Load", r.PLoad)
	putField(fields, "rel_Autonomy", r.RelAutonomy)
	putField(fields, "rel_SelfConsumption", r.RelSelfConsumption)

	tags := make(map[string]string, 2)
	putTag(tags, "location", location)
	putTag(tags, "version", r.Version)

	return telemetry.Measurement{
		Name:   SiteMeasurement,
		Tags:   tags,
		Fields: fields,
		Time:   r.Time,
	}
}

// InverterRecord is one inverter entry from the power-flow document.
// Inverter records are produced but not persisted.
type InverterRecord struct {
	DeviceID   string
	DeviceType int
	Power      *float64
}

// MeterRecord is one smart meter's phase-1 readings.
type MeterRecord struct {
	Time       time.Time
	DeviceTime string
	DeviceID   string

	Manufacturer string
	Model        string
	Serial       string

	CurrentL1              *float64
	VoltageL1              *float64
	GridFrequency          *float64
	EnergyActiveMinus      *float64
	EnergyActivePlus       *float64
	EnergyActiveConsumed   *float64
	EnergyActiveProduced   *float64
	EnergyReactiveConsumed *float64
	EnergyReactiveProduced *float64
	PowerFactorL1          *float64
	PowerApparentL1        *float64
	PowerReactiveL1        *float64
	PowerRealL1            *float64
}

// Measurement converts the record into the MeterValues measurement.
func (r MeterRecord) Measurement(location string) telemetry.Measurement {
	fields := make(map[string]any, 13)
	putField(fields, "Current_L1", r.CurrentL1)
	putField(fields, "Voltage_L1", r.VoltageL1)
	putField(fields, "Grid_Frequency", r.GridFrequency)
	putField(fields, "EnergyActiveMinus", r.EnergyActiveMinus)
	putField(fields, "EnergyActivePlus", r.EnergyActivePlus)
	putField(fields, "EnergyActiveConsumed", r.EnergyActiveConsumed)
	putField(fields, "EnergyActiveProduced", r.EnergyActiveProduced)
	putField(fields, "EnergyReActiveConsumed", r.EnergyReactiveConsumed)
	putField(fields, "EnergyReActiveProduced", r.EnergyReactiveProduced)
	putField(fields, "PowerFactorL1", r.PowerFactorL1)
	putField(fields, "PowerApparentL1", r.PowerApparentL1)
	putField(fields, "PowerReActiveL1", r.PowerReactiveL1)
	putField(fields, "PowerReal_L1", r.PowerRealL1)

	tags := make(map[string]string, 4)
	putTag(tags, "location", location)
	putTag(tags, "manufacturer", r.Manufacturer)
	putTag(tags, "model", r.Model)
	putTag(tags, "serial", r.Serial)

	return telemetry.Measurement{
		Name:   MeterMeasurement,
		Tags:   tags,
		Fields: fields,
		Time:   r.Time,
	}
}

func putField(fields map[string]any, name string, v *float64) {
	if v != nil {
		fields[name] = *v
	}
}

// putTag skips empty values; line protocol has no empty tag.
func putTag(tags map[string]string, name, v string) {
	if v != "" {
		tags[name] = v
	}
}
