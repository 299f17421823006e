package manifest

// DCTermsPath is the manifest-relative path of the dcterms metadata
// document every deposit package starts with.
const DCTermsPath = "metadata/dcterms.xml"

// DCTermsFormat names the metadata format of the dcterms document.
const DCTermsFormat = "dcterms"

// DepositRecord records the most recent deposit of one item to one endpoint.
type DepositRecord struct {
	EndpointID  string    `json:"id"`
	LastDeposit Timestamp `json:"lastDeposit"`
}

// FileRecord tracks one regular file relative to the package base directory.
type FileRecord struct {
	Path        string    `json:"path"`        // slash-separated, relative to the base directory
	ContentHash string    `json:"contentHash"` // SHA-256, lowercase hex
	AddedAt     Timestamp `json:"addedAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
	// Deposits is the per-endpoint deposit log. The manifest key is
	// "endpoints": each entry names an endpoint id and the last deposit
	// made to it.
	Deposits []DepositRecord `json:"endpoints"`
}

// Deposit returns the deposit-log entry for the given endpoint id, if present.
func (f FileRecord) Deposit(endpointID string) (DepositRecord, bool) {
	for _, d := range f.Deposits {
		if d.EndpointID == endpointID {
			return d, true
		}
	}
	return DepositRecord{}, false
}

// SetDeposit appends or overwrites the entry for d.EndpointID in place.
// At most one entry per endpoint id is kept.
func (f *FileRecord) SetDeposit(d DepositRecord) {
	for i := range f.Deposits {
		if f.Deposits[i].EndpointID == d.EndpointID {
			f.Deposits[i] = d
			return
		}
	}
	f.Deposits = append(f.Deposits, d)
}

// Clone returns a deep copy. Mutating the copy's deposit log leaves the
// original untouched.
func (f FileRecord) Clone() FileRecord {
	c := f
	c.Deposits = cloneDeposits(f.Deposits)
	return c
}

// EndpointRecord describes a remote deposit target.
type EndpointRecord struct {
	ID                 string `json:"id"`
	ServiceDocumentURI string `json:"serviceDocumentURI"`
	CollectionURI      string `json:"collectionURI,omitempty"`
	PackageFormat      string `json:"packageFormat,omitempty"`
	Username           string `json:"username,omitempty"`
	OnBehalfOf         string `json:"actingOnBehalfOf,omitempty"`
}

// MetadataRecord tracks a metadata document under metadata/.
type MetadataRecord struct {
	Path       string          `json:"path"`
	Format     string          `json:"format"`
	AddedAt    Timestamp       `json:"added"`
	ModifiedAt Timestamp       `json:"modified"`
	Deposits   []DepositRecord `json:"endpoints"`
}

// Clone returns a deep copy of the metadata record.
func (m MetadataRecord) Clone() MetadataRecord {
	c := m
	c.Deposits = cloneDeposits(m.Deposits)
	return c
}

// Manifest is the JSON document persisted at the package root. It is the
// single source of truth for tracked files, registered endpoints, and
// metadata documents.
type Manifest struct {
	Created   Timestamp        `json:"created"`
	Files     []FileRecord     `json:"files"`
	Endpoints []EndpointRecord `json:"endpoints"`
	Metadata  []MetadataRecord `json:"metadata"`
}

// New returns the manifest for a freshly initialized package: no files,
// no endpoints, and a placeholder entry for the dcterms metadata document.
func New(created Timestamp) *Manifest {
	return &Manifest{
		Created:   created,
		Files:     []FileRecord{},
		Endpoints: []EndpointRecord{},
		Metadata: []MetadataRecord{
			{
				Path:       DCTermsPath,
				Format:     DCTermsFormat,
				AddedAt:    created,
				ModifiedAt: created,
				Deposits:   []DepositRecord{},
			},
		},
	}
}

// Normalize replaces nil slices with empty ones so the manifest always
// serializes arrays, never null.
func (m *Manifest) Normalize() {
	if m.Files == nil {
		m.Files = []FileRecord{}
	}
	if m.Endpoints == nil {
		m.Endpoints = []EndpointRecord{}
	}
	if m.Metadata == nil {
		m.Metadata = []MetadataRecord{}
	}
	for i := range m.Files {
		if m.Files[i].Deposits == nil {
			m.Files[i].Deposits = []DepositRecord{}
		}
	}
	for i := range m.Metadata {
		if m.Metadata[i].Deposits == nil {
			m.Metadata[i].Deposits = []DepositRecord{}
		}
	}
}

func cloneDeposits(in []DepositRecord) []DepositRecord {
	out := make([]DepositRecord, len(in))
	copy(out, in)
	return out
}
