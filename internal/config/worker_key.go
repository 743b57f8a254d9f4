package config

type WorkerKeyStruct struct {
	PersistProctoringQueue string
	// Events the database rejects for good are parked here for inspection.
	DeadProctoringQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistProctoringQueue: "persist_proctoring_queue",
	DeadProctoringQueue:    "dead_proctoring_queue",
}
