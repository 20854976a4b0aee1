package cow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	AppDataVersion  = "1.1.0"
	DefaultAppCode  = "bitte.ai/CowAgent"
	DefaultReferrer = "0x8d99F8b2710e6A3B94d9bf465A98E5273069aCBd"
)

// AppDataDoc is the appData document. Field order is alphabetical at every
// level so the encoding, and therefore the hash, is stable.
type AppDataDoc struct {
	AppCode  string          `json:"appCode"`
	Metadata AppDataMetadata `json:"metadata"`
	Version  string          `json:"version"`
}

type AppDataMetadata struct {
	Referrer *AppDataReferrer `json:"referrer,omitempty"`
}

type AppDataReferrer struct {
	Address string `json:"address"`
}

// NewAppDataDoc builds the document for appCode and an optional referrer.
func NewAppDataDoc(appCode string, referrer common.Address) AppDataDoc {
	doc := AppDataDoc{AppCode: appCode, Version: AppDataVersion}
	if referrer != (common.Address{}) {
		doc.Metadata.Referrer = &AppDataReferrer{Address: referrer.Hex()}
	}
	return doc
}

// Encode returns the compact JSON document and its keccak256 hash.
func (d AppDataDoc) Encode() (string, common.Hash, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return "", common.Hash{}, fmt.Errorf("encode appData: %w", err)
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")
	return string(raw), crypto.Keccak256Hash(raw), nil
}

// AppDataRegistrar stores an appData document under its hash.
type AppDataRegistrar interface {
	PostAppData(ctx context.Context, chainID uint64, hash common.Hash, doc string) (common.Hash, error)
}

// MetadataPublisher registers the service's appData before an order references it.
type MetadataPublisher struct {
	doc       AppDataDoc
	registrar AppDataRegistrar
}

func NewMetadataPublisher(appCode string, referrer common.Address, registrar AppDataRegistrar) *MetadataPublisher {
	return &MetadataPublisher{
		doc:       NewAppDataDoc(appCode, referrer),
		registrar: registrar,
	}
}

// Publish registers the document on chainID and returns its hash. A registry
// that answers with a different hash is treated as a failed registration.
func (p *MetadataPublisher) Publish(ctx context.Context, chainID uint64) (common.Hash, error) {
	doc, hash, err := p.doc.Encode()
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrSubmission, err)
	}

	got, err := p.registrar.PostAppData(ctx, chainID, hash, doc)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: register appData: %w", ErrSubmission, err)
	}
	if got != hash {
		return common.Hash{}, fmt.Errorf("%w: appData registered as %s, expected %s", ErrSubmission, got.Hex(), hash.Hex())
	}
	return hash, nil
}
