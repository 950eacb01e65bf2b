package state

import "time"

// Default returns the factory snapshot of an EZR controller with two heat
// areas, two heat controllers and two paired I/O devices. DATETIME and
// DAYOFWEEK are taken from now.
func Default(now time.Time) *Device {
	d := &Device{
		Attrs: NewRecord(
			F("ID", String("EZR010A49")),
			F("TYPE", String("EZRCTRL1")),
			F("NAME", String("EZR010A49")),
			F("ORIGIN", String("EZR010A49")),
			F("ERRORCOUNT", Int(0)),
			F(FieldDateTime, String(now.Format(DateTimeLayout))),
			F(FieldDayOfWeek, Int(int64(DayOfWeek(now)))),
			F("TIMEZONE", Int(1)),
			F("NTPTIMESYNC", Int(1)),
			F("VERS_SW_STM", String("86.19")),
			F("VERS_SW_ETH", String("71.40")),
			F("VERS_HW", String("01")),
			F("TEMPERATUREUNIT", Int(0)),
			F("SUMMERWINTER", Int(1)),
			F("TPS", Int(0)),
			F("LIMITER", Int(0)),
			F("MASTERID", String("MASTERID")),
			F("CHANGEOVER", Int(0)),
			F(FieldCooling, Int(0)),
			F("MODE", Int(0)),
			F("OPERATIONMODE_ACTOR", Int(0)),
			F("ANTIFREEZE", Int(1)),
			F("ANTIFREEZE_TEMP", Float(8.0)),
			F("FIRSTOPEN_TIME", Int(10)),
			F("SMARTSTART", Int(0)),
			F("ECO_DIFF", Float(2.0)),
			F("ECO_INPUTMODE", Int(0)),
			F("ECO_INPUT_STATE", Int(0)),
			F("T_HEAT_VACATION", Float(16.0)),
			F(FieldVacation, Nested(NewRecord(
				F("VACATION_STATE", Int(0)),
				F("START_DATE", String("2015-00-00")),
				F("START_TIME", String("12:00:00")),
				F("END_DATE", String("2015-00-00")),
				F("END_TIME", String("12:00:00")),
			))),
			F("NETWORK", Nested(NewRecord(
				F("MAC", String("38:DE:60:01:1F:DE")),
				F("DHCP", Int(1)),
				F("IPV6ACTIVE", Int(0)),
				F("IPV4ACTUAL", String("192.168.6.161")),
				F("IPV4SET", String("192.168.100.100")),
				F("IPV6ACTUAL", String("")),
				F("IPV6SET", String("")),
				F("NETMASKACTUAL", String("255.255.248.0")),
				F("NETMASKSET", String("255.255.248.0")),
				F("DNS", String("192.168.3.125")),
				F("GATEWAY", String("192.168.3.4")),
			))),
			F("CLOUD", Nested(NewRecord(
				F("USERID", String("")),
				F("PASSWORD", String("")),
				F("M2MSERVERPORT", Int(55555)),
				F("M2MLOCALPORT", Int(54062)),
				F("M2MHTTPPORT", Int(54062)),
				F("M2MHTTPSPORT", Int(58157)),
				F("M2MSERVERADDRESS", String("www.ezr-cloud1.de")),
				F("M2MACTIVE", Int(0)),
				F("M2MSTATE", String("Offline")),
			))),
			F("KWLCTRL", Nested(NewRecord(
				F("KWL_CONTROL_VISIBLE", Int(0)),
				F("KWL_PRESENT", Int(0)),
				F("KWL_CONNECTION", Int(0)),
				F("KWL_URL", String("---")),
				F("KWL_PORT", Int(7777)),
				F("KWL_STATUS", Int(0)),
				F("KWL_FLOWCTRL", Int(0)),
			))),
			F("CODE", Nested(NewRecord(
				F("EXPERT", String("455A526CCD9936D0")),
			))),
			F(FieldRelais, Nested(NewRecord(
				F("FUNCTION", Int(0)),
				F("RELAIS_LEADTIME", Int(0)),
				F("RELAIS_STOPPINGTIME", Int(0)),
				F("RELAIS_OPERATIONMODE", Int(0)),
			))),
		),
		HeatAreas: []*Entry{
			defaultHeatArea(1, "1Kitchen", 22.6, 28.0, "455A52185EC6F38A"),
			defaultHeatArea(2, "2Bath", 22.8, 21.0, "455A528B33F719DB"),
		},
		HeatCtrls: []*Entry{
			defaultHeatCtrl(1, 1, 1, 100, 1),
			defaultHeatCtrl(2, 2, 0, 0, 0),
		},
		IODevices: []*Entry{
			defaultIODevice(1, 1),
			defaultIODevice(2, 2),
		},
	}
	return d
}

func defaultHeatArea(nr int, name string, actual, target float64, lockCode string) *Entry {
	return &Entry{Nr: nr, Fields: NewRecord(
		F(FieldHeatAreaName, String(name)),
		F("HEATAREA_MODE", Int(1)),
		F(FieldTActual, Float(actual)),
		F("T_ACTUAL_EXT", Float(actual)),
		F(FieldTTarget, Float(target)),
		F("T_TARGET_BASE", Float(target)),
		F("HEATAREA_STATE", Int(0)),
		F("PROGRAM_SOURCE", Int(0)),
		F("PROGRAM_WEEK", Int(2)),
		F("PROGRAM_WEEKEND", Int(0)),
		F("PARTY", Int(0)),
		F("PARTY_REMAININGTIME", Int(0)),
		F("PRESENCE", Int(0)),
		F(FieldTTargetMin, Float(5.0)),
		F(FieldTTargetMax, Float(30.0)),
		F("RPM_MOTOR", Int(0)),
		F("OFFSET", Float(0.0)),
		F("T_HEAT_DAY", Float(21.0)),
		F("T_HEAT_NIGHT", Float(19.0)),
		F("T_COOL_DAY", Float(21.0)),
		F("T_COOL_NIGHT", Float(23.0)),
		F("T_FLOOR_DAY", Float(3.0)),
		F("HEATINGSYSTEM", Int(4)),
		F("BLOCK_HC", Int(0)),
		F("ISLOCKED", Int(0)),
		F("LOCK_CODE", String(lockCode)),
		F("LOCK_AVAILABLE", Int(0)),
		F("LIGHT", Int(15)),
		F("SENSOR_EXT", Int(0)),
		F("T_TARGET_ADJUSTABLE", Int(1)),
	)}
}

func defaultHeatCtrl(nr int, area int64, actor, percent, st int64) *Entry {
	return &Entry{Nr: nr, Fields: NewRecord(
		F("INUSE", Int(1)),
		F(FieldHeatAreaNr, Int(area)),
		F("ACTOR", Int(actor)),
		F("ACTOR_PERCENT", Int(percent)),
		F("HEATCTRL_STATE", Int(st)),
	)}
}

func defaultIODevice(nr int, area int64) *Entry {
	return &Entry{Nr: nr, Fields: NewRecord(
		F(FieldIODeviceType, Int(0)),
		F(FieldIODeviceID, Int(int64(nr))),
		F("IODEVICE_VERS_HW", Int(1)),
		F("IODEVICE_VERS_SW", String("95.66")),
		F(FieldHeatAreaNr, Int(area)),
		F("SIGNALSTRENGTH", Int(2)),
		F("BATTERY", Int(2)),
		F("IODEVICE_STATE", Int(0)),
		F("IODEVICE_COMERROR", Int(0)),
		F("ISON", Int(1)),
	)}
}

// NewVirtualIODevice builds a type-8 I/O device bound to area.
func NewVirtualIODevice(nr int, id int64, area int64) *Entry {
	return &Entry{Nr: nr, Fields: NewRecord(
		F(FieldIODeviceType, Int(IODeviceTypeVirtual)),
		F(FieldIODeviceID, Int(id)),
		F("IODEVICE_VERS_HW", Int(0)),
		F("IODEVICE_VERS_SW", String("00.00")),
		F(FieldHeatAreaNr, Int(area)),
		F("SIGNALSTRENGTH", Int(2)),
		F("BATTERY", Int(0)),
		F("IODEVICE_STATE", Int(0)),
		F("IODEVICE_COMERROR", Int(0)),
		F("ISON", Int(1)),
	)}
}
