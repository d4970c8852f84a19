package metrics

import "strconv"

// GlobalGroup is the dynamic group name a collector rebinds to the
// requesting client's PID (spec §3 MetricRef).
const GlobalGroup = "GLOBAL"

// Resolve returns the concrete group to look a ref up under for a given
// client pid: GLOBAL refs are rebound per client, all other groups
// ("CPU", "RAM", "GPU0", ...) are domain-static and returned unchanged.
func (r MetricRef) Resolve(clientPid int32) MetricRef {
	if r.Group != GlobalGroup {
		return r
	}
	return MetricRef{Group: "PID:" + strconv.Itoa(int(clientPid)), Name: r.Name}
}
