// Package repository define las interfaces de colaboradores externos del
// core de reconciliación: el backend de identidad (IdP) y el store
// relacional de perfiles. Los drivers viven en internal/idp e
// internal/profile; el core depende solo de estas interfaces.
package repository
