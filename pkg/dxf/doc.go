// Package dxf reads, edits and writes ASCII DXF drawings.
//
// # Overview
//
// A drawing is kept as the flat list of group-code/value pairs it was read
// from. Nothing is re-serialized from a parsed model, so content this package
// does not understand (proxy objects, xdata, dictionaries, layouts) is written
// back byte for byte. Three kinds of change are layered on top:
//
//   - additions: layers ([Document.AddLayer]), block definitions
//     ([Document.AddBlock]), model space entities ([Document.Add]) and, in
//     R2000 and later drawings, paper space layouts ([Document.AddLayout])
//   - attribute edits: [Document.SetAttrib] rewrites an ATTRIB value in place
//   - header updates: $HANDSEED follows the handles allocated for additions
//
// Additions are encoded for the drawing's version. AC1009 (R12) drawings get
// POLYLINE/VERTEX sequences and TEXT lines, while AC1012 and later get
// LWPOLYLINE, MTEXT, subclass markers, handles and owner pointers.
//
// # Reading
//
// [Document.Entities] decodes the ENTITIES section into typed values
// ([Line], [Arc], [Circle], [Polyline], [Insert], [Text], [MText]). Entity
// types without a decoder come back as [Unknown] so callers can still count
// them by layer.
//
// # Sessions
//
// [Edit] opens a drawing, applies a function to it and saves the result
// atomically:
//
//	err := dxf.Edit("route.dxf", "route.devices.dxf", func(doc *dxf.Document) error {
//	    doc.AddLayer("DEVICE_CCTV", 3)
//	    return doc.Add(dxf.Insert{Layer: "DEVICE_CCTV", Block: "CCTV", Point: p, Scale: 1})
//	})
//
// Binary DXF is not supported.
package dxf
