// Package mongodb implements the store interfaces on top of MongoDB using the
// official v2 driver. It owns collection names, index creation, document
// mapping and the translation of driver errors into store errors.
package mongodb
