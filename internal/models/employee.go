// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package models

// Employee is one internal user of a synced data source. For hashed
// collections the ID is an irreversible pseudonym of the source identity.
type Employee struct {
	ID          string            `json:"id"`
	Email       string            `json:"email,omitempty"`
	IsExternal  bool              `json:"is_external,omitempty"`
	Groups      []string          `json:"groups,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	RelationIDs []string          `json:"relation_ids,omitempty"`
}

// EmployeeCollection is the set of employees a data source reports for one
// connector.
type EmployeeCollection struct {
	Employees []Employee `json:"employees"`
	Hashed    bool       `json:"hashed"`
}

// IDs returns the employee ids in collection order.
func (c EmployeeCollection) IDs() []string {
	ids := make([]string, 0, len(c.Employees))
	for _, e := range c.Employees {
		ids = append(ids, e.ID)
	}
	return ids
}
