package types

import "rtdnode/bus"

// Bus topics published by the node.
var (
	// TopicEvt carries host-visible "+EVT:..." lines (string payload).
	TopicEvt = bus.T("at", "evt")
	// TopicFault carries one FaultEvent per set MAX31865 fault bit.
	TopicFault = bus.T("node", "fault")
	// TopicState is the retained NodeState snapshot.
	TopicState = bus.T("node", "state")
	// TopicReading is the retained last ReadingValue.
	TopicReading = bus.T("node", "reading")
)

// TopicTelemetryState is the retained LinkState of the telemetry link.
var TopicTelemetryState = bus.T("telemetry", "state")
