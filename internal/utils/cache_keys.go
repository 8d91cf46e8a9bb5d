package utils

const workPostsListPrefix = "work_posts:list:v1:"

// ActiveWorkPostsKey caches the public board of active posts.
func ActiveWorkPostsKey() string {
	return workPostsListPrefix + "active"
}

// ContractorWorkPostsKey caches one contractor's own posts.
func ContractorWorkPostsKey(contractorID string) string {
	return workPostsListPrefix + "contractor=" + contractorID
}

// WorkPostKeysFor lists every list key a change to this contractor's post can stale.
func WorkPostKeysFor(contractorID string) []string {
	return []string{ActiveWorkPostsKey(), ContractorWorkPostsKey(contractorID)}
}
