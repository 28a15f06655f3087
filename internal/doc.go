// Package internal holds helpers shared by edgeguard and its concern
// packages: id masking for log hygiene and device fingerprint hashing.
package internal
