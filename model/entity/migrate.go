package entity

// All returns every entity for AutoMigrate (db:migrate command and tests).
func All() []interface{} {
	return []interface{}{
		&Ball{},
		&SortSession{},
		&Product{},
		&Procurement{},
		&ProcurementItem{},
		&Transaction{},
		&ChannelAccount{},
		&Store{},
		&SyncLog{},
	}
}
