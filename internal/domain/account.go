package domain

import (
	"strings"
	"time"
)

// ProviderKind identifica el tipo de provider asociado a una cuenta.
type ProviderKind string

const (
	ProviderPassword  ProviderKind = "password"
	ProviderGoogle    ProviderKind = "google"
	ProviderFacebook  ProviderKind = "facebook"
	ProviderMicrosoft ProviderKind = "microsoft"
	ProviderApple     ProviderKind = "apple"
)

// IsPassword indica si el provider es el provider local de password.
func (k ProviderKind) IsPassword() bool { return k == ProviderPassword }

// IsSocial indica si el provider es un provider externo (no password).
func (k ProviderKind) IsSocial() bool { return k != ProviderPassword && k != "" }

// ProviderRecord es la vinculación de una credencial de provider a una cuenta.
type ProviderRecord struct {
	Kind           ProviderKind
	ProviderUserID string
	// Email reportado por el provider. Puede estar vacío.
	Email string
}

// Account es la cuenta tal como la expone el backend de identidad.
// No se persiste localmente en forma completa.
type Account struct {
	ID          string
	Email       string // campo top-level, puede estar ausente
	DisplayName string
	// ProviderRecords en el orden en que fueron vinculados.
	ProviderRecords []ProviderRecord
	CreatedAt       time.Time
}

// NormalizeEmail baja a minúsculas y recorta espacios.
// Toda comparación de emails en el sistema pasa por acá.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EffectiveEmail deriva el email efectivo de la cuenta: el campo top-level
// si está presente, o el primer email no vacío entre los provider records
// (en orden de vinculación). Retorna "" si ninguno tiene email.
// Única definición de la derivación: nunca comparar solo el campo top-level.
func (a *Account) EffectiveEmail() string {
	if a == nil {
		return ""
	}
	if a.Email != "" {
		return NormalizeEmail(a.Email)
	}
	for _, rec := range a.ProviderRecords {
		if rec.Email != "" {
			return NormalizeEmail(rec.Email)
		}
	}
	return ""
}

// Has indica si la cuenta tiene un provider record del kind dado.
func (a *Account) Has(kind ProviderKind) bool {
	if a == nil {
		return false
	}
	for _, rec := range a.ProviderRecords {
		if rec.Kind == kind {
			return true
		}
	}
	return false
}

// HasRecord indica si la cuenta ya tiene exactamente ese (kind, providerUserID).
func (a *Account) HasRecord(kind ProviderKind, providerUserID string) bool {
	if a == nil {
		return false
	}
	for _, rec := range a.ProviderRecords {
		if rec.Kind == kind && rec.ProviderUserID == providerUserID {
			return true
		}
	}
	return false
}

// SocialKinds lista los kinds sociales vinculados, en orden de vinculación.
func (a *Account) SocialKinds() []ProviderKind {
	if a == nil {
		return nil
	}
	kinds := make([]ProviderKind, 0, len(a.ProviderRecords))
	for _, rec := range a.ProviderRecords {
		if rec.Kind.IsSocial() {
			kinds = append(kinds, rec.Kind)
		}
	}
	return kinds
}

// LastProvider retorna el kind del último provider record vinculado.
func (a *Account) LastProvider() (ProviderKind, bool) {
	if a == nil || len(a.ProviderRecords) == 0 {
		return "", false
	}
	return a.ProviderRecords[len(a.ProviderRecords)-1].Kind, true
}

// Classification resume la composición de providers de una cuenta.
type Classification struct {
	HasPassword bool
	HasSocial   bool
}

// Classify computa la clasificación de un set de provider records.
// Única definición: el engine y los services no deben re-derivar esto inline.
func Classify(records []ProviderRecord) Classification {
	var c Classification
	for _, rec := range records {
		if rec.Kind.IsPassword() {
			c.HasPassword = true
		} else if rec.Kind != "" {
			c.HasSocial = true
		}
	}
	return c
}

// SocialOnly indica social sin password.
func (c Classification) SocialOnly() bool { return c.HasSocial && !c.HasPassword }
