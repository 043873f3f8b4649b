// Package formats provides codecs for material and texture file formats.
package formats

// Note: VTF (Valve Texture Format) is fully implemented in vtf.go
// Note: VMT (Valve Material Type) encoding is implemented in vmt.go
// Note: HDR (Radiance RGBE) decoding is implemented in hdr.go
