package attachment

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

const azuriteKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

// Blob stores attachments in one Azure Blob Storage container.
type Blob struct {
	client    *azblob.Client
	container string
}

// NewBlob connects to serviceURL and creates container if it does not exist.
// Plain http URLs are treated as a local Azurite emulator.
func NewBlob(ctx context.Context, serviceURL, container string) (*Blob, error) {
	var (
		client *azblob.Client
		err    error
	)

	if strings.HasPrefix(serviceURL, "http://") {
		cred, credErr := azblob.NewSharedKeyCredential("devstoreaccount1", azuriteKey)
		if credErr != nil {
			return nil, fmt.Errorf("creating shared key credential: %w", credErr)
		}

		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("creating azure credential: %w", credErr)
		}

		client, err = azblob.NewClient(serviceURL, cred, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("creating container %s: %w", container, err)
	}

	return &Blob{client: client, container: container}, nil
}

func (b *Blob) Put(ctx context.Context, name, contentType string, data []byte) error {
	_, err := b.client.UploadBuffer(ctx, b.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("uploading blob: %w", err)
	}

	return nil
}

func (b *Blob) Get(ctx context.Context, name string) ([]byte, string, error) {
	resp, err := b.client.DownloadStream(ctx, b.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, "", ErrNotFound
		}

		return nil, "", fmt.Errorf("downloading blob: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading blob: %w", err)
	}

	contentType := "application/octet-stream"
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}

	return data, contentType, nil
}
