// Package layout defines table layouts for the Rowgate gateway: the
// family/qualifier schema of a table and the encoding scheme of its row
// keys.
//
// # Overview
//
// Every table served by the gateway has a declared layout. The layout is
// the authority for two request-time decisions:
//
//  1. Which column tokens in a "cols" parameter are valid. A token may
//     name a family (all qualifiers) or a family:qualifier pair; both
//     must exist in the layout.
//  2. How a client-supplied entity identifier is turned into the raw
//     row-key bytes the store is keyed by.
//
// # Families
//
// A family is either group-type or map-type:
//
//   - Group-type: declares a fixed qualifier set. Referencing a
//     qualifier outside the set is a client error.
//   - Map-type: declares no qualifiers and accepts any qualifier name.
//
// # Row-key formats
//
// Three formats are supported:
//
//   - raw: the entity identifier token is used verbatim (UTF-8 bytes).
//   - hex: the token is the hex encoding of the key bytes.
//   - composite: the token is a JSON array of string components, joined
//     with a 0x00 separator to form the key. Component values cannot
//     contain 0x00.
//
// Range bounds (start_rk / end_rk) are always hex-encoded raw key bytes
// regardless of the table's entity-identifier format, so that clients can
// express arbitrary scan boundaries.
//
// Layouts are declared in YAML and validated once at load time; they are
// immutable afterwards and safe for concurrent use.
package layout
