// Package serialize decodes package content into typed values and encodes
// values back into packages. The codec is chosen from the package path
// extension: .json, .yaml, .yml and .toml are supported.
package serialize
