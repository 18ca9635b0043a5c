package entities

const CredentialsPath = "credentials"

type CredentialSummary struct {
	CredentialType *NamedRef `json:"credential_type,omitempty"`
	Organization   *NamedRef `json:"organization,omitempty"`
}

type Credential struct {
	ID             int               `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Kind           string            `json:"kind"`
	CredentialType int               `json:"credential_type"`
	Organization   *int              `json:"organization"`
	SummaryFields  CredentialSummary `json:"summary_fields"`
	Timestamps
}

func (c Credential) GetID() int      { return c.ID }
func (c Credential) GetName() string { return c.Name }
func (c Credential) GetURL() string  { return detailURL(CredentialsPath, c.ID) }

// FromRef builds the partial credential a job template summary carries.
func CredentialFromRef(ref NamedRef) Credential {
	return Credential{ID: ref.ID, Name: ref.Name, Description: ref.Description}
}
