package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	// Tracking
	&ProductMonitor{},
	&PriceObservation{},
	&NotificationEvent{},
}
