package domain

// KeyPrefix namespaces every key written to the KV store.
const KeyPrefix = "lostfound:"
