package parser

import (
	"container/list"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Keep pages in a free list to avoid allocations.
type freeList struct {
	pool sync.Pool
}

func newFreeList(pagesize int64) *freeList {
	return &freeList{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, pagesize)
			},
		},
	}
}

func (self *freeList) Get() []byte {
	return self.pool.Get().([]byte)
}

func (self *freeList) Put(in []byte) {
	self.pool.Put(in)
}

type cachedPage struct {
	offset int64
	data   []byte
}

// PagedReader reads whole aligned pages from the delegate and keeps
// the most recent ones in memory. Raw windows devices (\\.\C:) can
// only be read in whole sectors, and MFT records are smaller than a
// page so consecutive records are usually served from the cache.
type PagedReader struct {
	mu sync.Mutex

	reader   io.ReaderAt
	pagesize int64
	capacity int

	// Most recently used at the front.
	lru      *list.List
	pages    map[int64]*list.Element
	freelist *freeList
	logger   *zap.Logger

	Hits int64
	Miss int64
}

// ReadAt reads a buffer from an offset in the backing file.
//
// The following semantics are used:
//  1. Reading within the file will always fill the buffer completely
//     with n = len(buf) and err = nil
//  2. Reading a buffer that starts within the file and ends past the
//     file returns the available bytes with err = io.EOF
//  3. Reading outside the bounds of the file will return n = 0 and
//     err = io.EOF
func (self *PagedReader) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, io.EOF
	}

	self.mu.Lock()
	defer self.mu.Unlock()

	buf_idx := 0
	for buf_idx < len(buf) {
		page := offset - offset%self.pagesize
		page_buf, available, err := self.getPage(page)
		if err != nil {
			return buf_idx, err
		}

		page_offset := int(offset - page)
		if page_offset >= available {
			return buf_idx, io.EOF
		}

		n := copy(buf[buf_idx:], page_buf[page_offset:available])
		buf_idx += n
		offset += int64(n)

		// A short page is the end of the file.
		if available < int(self.pagesize) && buf_idx < len(buf) {
			return buf_idx, io.EOF
		}
	}

	return buf_idx, nil
}

// Returns the page and the number of valid bytes in it. Must be
// called with the lock held.
func (self *PagedReader) getPage(page int64) ([]byte, int, error) {
	element, pres := self.pages[page]
	if pres {
		self.Hits++
		self.lru.MoveToFront(element)
		cached := element.Value.(*cachedPage)
		return cached.data, len(cached.data), nil
	}

	self.Miss++
	page_buf := self.freelist.Get()
	n, err := self.reader.ReadAt(page_buf, page)
	if err != nil && !errors.Is(err, io.EOF) {
		self.freelist.Put(page_buf)
		return nil, 0, err
	}

	// Nothing in this page, do not bother caching it.
	if n == 0 {
		self.freelist.Put(page_buf)
		return nil, 0, nil
	}

	self.pages[page] = self.lru.PushFront(&cachedPage{
		offset: page,
		data:   page_buf[:n],
	})
	self.evict()

	return page_buf, n, nil
}

func (self *PagedReader) evict() {
	for self.lru.Len() > self.capacity {
		oldest := self.lru.Back()
		cached := self.lru.Remove(oldest).(*cachedPage)
		delete(self.pages, cached.offset)
		self.freelist.Put(cached.data[:cap(cached.data)])
	}
}

// Flush invalidates the cache.
func (self *PagedReader) Flush() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.logger.Debug("flushing page cache",
		zap.Int64("hits", self.Hits), zap.Int64("miss", self.Miss))

	for element := self.lru.Front(); element != nil; element = element.Next() {
		data := element.Value.(*cachedPage).data
		self.freelist.Put(data[:cap(data)])
	}
	self.lru.Init()
	self.pages = make(map[int64]*list.Element)
}

// NewPagedReader caches up to cache_size pages of pagesize bytes. The
// page size must be a multiple of the device sector size.
func NewPagedReader(reader io.ReaderAt, pagesize int64, cache_size int) (
	*PagedReader, error) {
	if pagesize <= 0 {
		return nil, newParseError(IOError, -1, -1,
			"invalid page size %d", pagesize)
	}

	if cache_size <= 0 {
		cache_size = 1
	}

	logger := DefaultLogger()
	logger.Debug("creating page cache",
		zap.Int64("pagesize", pagesize), zap.Int("pages", cache_size))

	return &PagedReader{
		reader:   reader,
		pagesize: pagesize,
		capacity: cache_size,
		lru:      list.New(),
		pages:    make(map[int64]*list.Element),
		freelist: newFreeList(pagesize),
		logger:   logger,
	}, nil
}
