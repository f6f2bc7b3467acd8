package fronius

import (
	"time"

	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/config"
)

// Mapper turns decoded payloads into records.
//
// Mapper holds configuration only; the same payload always maps to the
// same records. A call returns complete records or an error.
type Mapper struct {
	// TimestampSource selects the record time: config.TimestampCollector
	// (response arrival, the default) or config.TimestampDevice (Head.Timestamp).
	TimestampSource string
}

// PowerFlow maps a GetPowerFlowRealtimeData document.
//
// One InverterRecord is returned per key of Body.Data.Inverters, ordered
// by key. The SiteRecord does not depend on the inverter set.
func (m Mapper) PowerFlow(p *Payload) (SiteRecord, []InverterRecord, error) {
	root := p.root()

	deviceTime, err := root.text("Head", "Timestamp")
	if err != nil {
		return SiteRecord{}, nil, err
	}
	ts, err := m.recordTime(p, deviceTime)
	if err != nil {
		return SiteRecord{}, nil, err
	}

	data, err := root.get("Body", "Data")
	if err != nil {
		return SiteRecord{}, nil, err
	}

	inverters, err := mapInverters(data)
	if err != nil {
		return SiteRecord{}, nil, err
	}

	site := SiteRecord{Time: ts, DeviceTime: deviceTime}
	if site.Version, err = data.text("Version"); err != nil {
		return SiteRecord{}, nil, err
	}

	s, err := data.get("Site")
	if err != nil {
		return SiteRecord{}, nil, err
	}
	if site.MeterLocation, err = s.text("Meter_Location"); err != nil {
		return SiteRecord{}, nil, err
	}
	if site.Mode, err = s.text("Mode"); err != nil {
		return SiteRecord{}, nil, err
	}

	numbers := []struct {
		key string
		dst **float64
	}{
		{"E_Day", &site.EDay},
		{"E_Total", &site.ETotal},
		{"E_Year", &site.EYear},
		{"P_Akku", &site.PAkku},
		{"P_Grid", &site.PGrid},
		{"P_Load", &site.PLoad},
		{"P_PV", &site.PPV},
		{"rel_Autonomy", &site.RelAutonomy},
		{"rel_SelfConsumption", &site.RelSelfConsumption},
	}
	for _, n := range numbers {
		if *n.dst, err = s.number(n.key); err != nil {
			return SiteRecord{}, nil, err
		}
	}

	return site, inverters, nil
}

func mapInverters(data node) ([]InverterRecord, error) {
	invs, err := data.get("Inverters")
	if err != nil {
		return nil, err
	}
	ids, err := invs.keys()
	if err != nil {
		return nil, err
	}

	records := make([]InverterRecord, 0, len(ids))
	for _, id := range ids {
		inv, _ := invs.get(id)

		dt, err := inv.number("DT")
		if err != nil {
			return nil, err
		}
		power, err := inv.number("P")
		if err != nil {
			return nil, err
		}

		rec := InverterRecord{DeviceID: id, Power: power}
		if dt != nil {
			rec.DeviceType = int(*dt)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Meters maps a GetMeterRealtimeData document with Scope=System.
//
// One MeterRecord is returned per key of Body.Data, ordered by key.
// An empty collection yields an empty slice.
func (m Mapper) Meters(p *Payload) ([]MeterRecord, error) {
	root := p.root()

	deviceTime, err := root.text("Head", "Timestamp")
	if err != nil {
		return nil, err
	}
	ts, err := m.recordTime(p, deviceTime)
	if err != nil {
		return nil, err
	}

	data, err := root.get("Body", "Data")
	if err != nil {
		return nil, err
	}
	ids, err := data.keys()
	if err != nil {
		return nil, err
	}

	records := make([]MeterRecord, 0, len(ids))
	for _, id := range ids {
		entry, _ := data.get(id)

		rec, err := mapMeter(entry)
		if err != nil {
			return nil, err
		}
		rec.Time = ts
		rec.DeviceTime = deviceTime
		rec.DeviceID = id
		records = append(records, rec)
	}
	return records, nil
}

func mapMeter(entry node) (MeterRecord, error) {
	var rec MeterRecord
	var err error

	if rec.Manufacturer, err = entry.text("Details", "Manufacturer"); err != nil {
		return MeterRecord{}, err
	}
	if rec.Model, err = entry.text("Details", "Model"); err != nil {
		return MeterRecord{}, err
	}
	if rec.Serial, err = entry.text("Details", "Serial"); err != nil {
		return MeterRecord{}, err
	}

	numbers := []struct {
		key string
		dst **float64
	}{
		{"Current_AC_Phase_1", &rec.CurrentL1},
		{"Voltage_AC_Phase_1", &rec.VoltageL1},
		{"Frequency_Phase_Average", &rec.GridFrequency},
		{"EnergyReal_WAC_Minus_Absolute", &rec.EnergyActiveMinus},
		{"EnergyReal_WAC_Plus_Absolute", &rec.EnergyActivePlus},
		{"EnergyReal_WAC_Phase_1_Consumed", &rec.EnergyActiveConsumed},
		{"EnergyReal_WAC_Phase_1_Produced", &rec.EnergyActiveProduced},
		{"EnergyReactive_VArAC_Phase_1_Consumed", &rec.EnergyReactiveConsumed},
		{"EnergyReactive_VArAC_Phase_1_Produced", &rec.EnergyReactiveProduced},
		{"PowerFactor_Phase_1", &rec.PowerFactorL1},
		{"PowerApparent_S_Phase_1", &rec.PowerApparentL1},
		{"PowerReactive_Q_Phase_1", &rec.PowerReactiveL1},
		{"PowerReal_P_Phase_1", &rec.PowerRealL1},
	}
	for _, n := range numbers {
		if *n.dst, err = entry.number(n.key); err != nil {
			return MeterRecord{}, err
		}
	}
	return rec, nil
}

// recordTime picks the write timestamp for records built from p.
func (m Mapper) recordTime(p *Payload, deviceTime string) (time.Time, error) {
	if m.TimestampSource == config.TimestampDevice {
		t, err := time.Parse(time.RFC3339, deviceTime)
		if err != nil {
			return time.Time{}, &FieldTypeError{Field: "Head.Timestamp", Want: "RFC3339 timestamp", Got: deviceTime}
		}
		return t.UTC().Truncate(time.Millisecond), nil
	}
	return p.ReceivedAt.UTC().Truncate(time.Millisecond), nil
}
