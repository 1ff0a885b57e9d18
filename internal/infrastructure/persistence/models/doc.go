// Package models contains the GORM persistence models of the marketplace.
//
// Domain entities carry no ORM tags. Each model maps one table, declares its
// constraints (unique keys, foreign keys, soft delete) in struct tags and
// converts to and from the domain with ToDomain / FromDomain.
package models
