package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

const (
	SBOMName             = "sbom.spdx.json"
	DefaultSBOMNamespace = "https://streamlit-packager.dev/spdx/images"
)

// SBOMWriterAdapter writes an SPDX 2.3 document describing the
// dependencies an image installs.
type SBOMWriterAdapter struct {
	Dir string
}

func NewSBOMWriterAdapter(dir string) SBOMWriterAdapter {
	return SBOMWriterAdapter{Dir: dir}
}

type spdxCreationInfo struct {
	Created  string   `json:"created"`
	Creators []string `json:"creators"`
}

type spdxExternalRef struct {
	Category string `json:"referenceCategory"`
	Type     string `json:"referenceType"`
	Locator  string `json:"referenceLocator"`
}

type spdxPackage struct {
	SPDXID           string            `json:"SPDXID"`
	Name             string            `json:"name"`
	VersionInfo      string            `json:"versionInfo"`
	DownloadLocation string            `json:"downloadLocation"`
	LicenseConcluded string            `json:"licenseConcluded"`
	LicenseDeclared  string            `json:"licenseDeclared"`
	Supplier         string            `json:"supplier"`
	ExternalRefs     []spdxExternalRef `json:"externalRefs,omitempty"`
}

type spdxRelationship struct {
	SpdxElementID      string `json:"spdxElementId"`
	RelationshipType   string `json:"relationshipType"`
	RelatedSpdxElement string `json:"relatedSpdxElement"`
}

type spdxDocument struct {
	SPDXVersion       string             `json:"spdxVersion"`
	DataLicense       string             `json:"dataLicense"`
	SPDXID            string             `json:"SPDXID"`
	Name              string             `json:"name"`
	DocumentNamespace string             `json:"documentNamespace"`
	CreationInfo      spdxCreationInfo   `json:"creationInfo"`
	Packages          []spdxPackage      `json:"packages"`
	Relationships     []spdxRelationship `json:"relationships"`
	DocumentDescribes []string           `json:"documentDescribes"`
}

func (a SBOMWriterAdapter) WriteSBOM(image string, createdAt string, resolved []types.ResolvedDependency) (string, error) {
	if strings.TrimSpace(a.Dir) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if strings.TrimSpace(image) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("sbom image reference is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	ordered := append([]types.ResolvedDependency(nil), resolved...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Type != ordered[j].Type {
			return ordered[i].Type < ordered[j].Type
		}
		return ordered[i].Package < ordered[j].Package
	})
	created := strings.TrimSpace(createdAt)
	if created == "" {
		created = time.Now().UTC().Format(time.RFC3339)
	}

	doc := spdxDocument{
		SPDXVersion:       "SPDX-2.3",
		DataLicense:       "CC0-1.0",
		SPDXID:            "SPDXRef-DOCUMENT",
		Name:              fmt.Sprintf("streamlit-packager image %s", image),
		DocumentNamespace: fmt.Sprintf("%s/%s", DefaultSBOMNamespace, spdxNamespaceID(image, created)),
		CreationInfo: spdxCreationInfo{
			Created:  created,
			Creators: []string{"Tool: streamlit-packager"},
		},
	}
	for _, dep := range ordered {
		spdxID := spdxPackageID(string(dep.Type), dep.Package, dep.Version)
		pkg := spdxPackage{
			SPDXID:           spdxID,
			Name:             dep.Package,
			VersionInfo:      dep.Version,
			DownloadLocation: "NOASSERTION",
			LicenseConcluded: "NOASSERTION",
			LicenseDeclared:  "NOASSERTION",
			Supplier:         "NOASSERTION",
		}
		if purl := packageURL(dep); purl != "" {
			pkg.ExternalRefs = []spdxExternalRef{{Category: "PACKAGE-MANAGER", Type: "purl", Locator: purl}}
		}
		doc.Packages = append(doc.Packages, pkg)
		doc.DocumentDescribes = append(doc.DocumentDescribes, spdxID)
		doc.Relationships = append(doc.Relationships, spdxRelationship{
			SpdxElementID:      "SPDXRef-DOCUMENT",
			RelationshipType:   "DESCRIBES",
			RelatedSpdxElement: spdxID,
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal sbom payload").
			WithCause(err)
	}
	path := filepath.Join(a.Dir, SBOMName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write sbom file").
			WithCause(err)
	}
	return path, nil
}

func packageURL(dep types.ResolvedDependency) string {
	switch dep.Type {
	case types.DependencyTypePip:
		return fmt.Sprintf("pkg:pypi/%s@%s", dep.Package, dep.Version)
	case types.DependencyTypeApt:
		return fmt.Sprintf("pkg:deb/debian/%s@%s", dep.Package, dep.Version)
	default:
		return ""
	}
}

func spdxPackageID(kind string, name string, version string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s@%s", kind, name, version)))
	return "SPDXRef-Package-" + hex.EncodeToString(hash[:8])
}

func spdxNamespaceID(image string, created string) string {
	hash := sha256.Sum256([]byte(image + "\x00" + created))
	return hex.EncodeToString(hash[:12])
}

var _ ports.SBOMPort = SBOMWriterAdapter{}
