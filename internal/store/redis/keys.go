package redis

// Redis key naming conventions for dataplane data. All keys are prefixed
// with "dataplane:" because the platform shares one Redis instance across
// products.

const keyPrefix = "dataplane:"

// jobKey returns the key for a job record hash: dataplane:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }
