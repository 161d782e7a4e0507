package library

import (
	"testing"

	"github.com/google/uuid"

	"github.com/John-Robertt/ACAT/internal/coverart"
	"github.com/John-Robertt/ACAT/internal/domain"
)

// 三个文件：file1 独占 image1，file2 与 file3 共享 image2。
func newTestFiles() (images []*coverart.Image, files []*File) {
	images = []*coverart.Image{
		coverart.NewImage("file://file1", []byte("a"), true, []string{"front"}),
		coverart.NewImage("file://file2", []byte("b"), true, []string{"front"}),
	}
	files = []*File{
		NewFile(domain.AudioFile{RelPath: "test1.flac"}),
		NewFile(domain.AudioFile{RelPath: "test2.flac"}),
		NewFile(domain.AudioFile{RelPath: "test2.flac"}),
	}
	files[0].Metadata.Images.Append(images[0])
	files[1].Metadata.Images.Append(images[1])
	files[2].Metadata.Images.Append(images[1])
	return images, files
}

func removeFile(files []*File, f *File) []*File {
	out := files[:0]
	for _, x := range files {
		if x != f {
			out = append(out, x)
		}
	}
	return out
}

func assertImages(t *testing.T, got *coverart.List, want ...*coverart.Image) {
	t.Helper()
	if !got.Equal(coverart.NewList(want...)) {
		t.Fatalf("聚合集合不符合预期：%d 张（期望 %d 张）", got.Len(), len(want))
	}
}

func TestCluster_UpdateImagesFromChildren(t *testing.T) {
	images, files := newTestFiles()

	cluster := NewCluster("Test")
	cluster.Files = append([]*File(nil), files...)
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}
	assertImages(t, cluster.Metadata.Images, images...)
	if cluster.Metadata.HasCommonImages {
		t.Fatalf("孩子集合不一致，公共标志应为 false")
	}

	// 去掉 file3：集合与标志都不变。
	cluster.Files = removeFile(cluster.Files, files[2])
	if cluster.UpdateImagesFromChildren() {
		t.Fatalf("状态未变，应返回 false")
	}
	assertImages(t, cluster.Metadata.Images, images...)
	if cluster.Metadata.HasCommonImages {
		t.Fatalf("公共标志应仍为 false")
	}

	// 去掉 file1：只剩 file2，集合缩小且变为公共。
	cluster.Files = removeFile(cluster.Files, files[0])
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("集合变化应返回 true")
	}
	assertImages(t, cluster.Metadata.Images, images[1])
	if !cluster.Metadata.HasCommonImages {
		t.Fatalf("唯一孩子，公共标志应为 true")
	}

	// 加回 file3（与 file2 同图）：什么都不变。
	cluster.Files = append(cluster.Files, files[2])
	if cluster.UpdateImagesFromChildren() {
		t.Fatalf("同图孩子加回后状态未变，应返回 false")
	}
	assertImages(t, cluster.Metadata.Images, images[1])
	if !cluster.Metadata.HasCommonImages {
		t.Fatalf("公共标志应仍为 true")
	}
}

func TestUpdate_IdempotentSecondCallReturnsFalse(t *testing.T) {
	_, files := newTestFiles()
	cluster := NewCluster("Test")
	cluster.Files = append([]*File(nil), files...)

	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("第一次应返回 true")
	}
	if cluster.UpdateImagesFromChildren() {
		t.Fatalf("孩子未变时第二次必须返回 false")
	}
}

func TestUpdate_ZeroChildren(t *testing.T) {
	cluster := NewCluster("Test")
	// 初始即空 + 空真：重算不改变任何用户可见状态。
	if cluster.UpdateImagesFromChildren() {
		t.Fatalf("零孩子且已是空集合+true，应返回 false")
	}
	if cluster.Metadata.Images.Len() != 0 || !cluster.Metadata.HasCommonImages {
		t.Fatalf("零孩子应得到空集合与空真标志")
	}
}

func TestTrack_UpdateImagesFromChildren(t *testing.T) {
	images, files := newTestFiles()

	track := NewTrack(uuid.Nil)
	track.Files = append([]*File(nil), files...)
	if !track.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}
	assertImages(t, track.Metadata.Images, images...)
	if track.Metadata.HasCommonImages {
		t.Fatalf("公共标志应为 false")
	}

	track.Files = removeFile(track.Files, files[2])
	if track.UpdateImagesFromChildren() {
		t.Fatalf("状态未变，应返回 false")
	}

	track.Files = removeFile(track.Files, files[0])
	if !track.UpdateImagesFromChildren() {
		t.Fatalf("集合变化应返回 true")
	}
	assertImages(t, track.Metadata.Images, images[1])
	if !track.Metadata.HasCommonImages {
		t.Fatalf("公共标志应为 true")
	}
}

func TestAlbum_UpdateImagesFromChildren(t *testing.T) {
	images, files := newTestFiles()

	album := NewAlbum(uuid.MustParse("00000000-0000-0000-0000-000000000000"))
	track1 := NewTrack(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	track1.Files = append(track1.Files, files[0])
	track2 := NewTrack(uuid.MustParse("00000000-0000-0000-0000-000000000002"))
	track2.Files = append(track2.Files, files[1])
	album.Tracks = []*Track{track1, track2}
	album.UnmatchedFiles.Files = append(album.UnmatchedFiles.Files, files[2])

	// 专辑聚合依赖孩子视图新鲜：自底向上刷新。
	if !RefreshAlbumImages(album) {
		t.Fatalf("首次刷新应返回 true")
	}
	assertImages(t, album.Metadata.Images, images...)
	if album.Metadata.HasCommonImages {
		t.Fatalf("孩子视图不一致，公共标志应为 false")
	}

	// 去掉 track2：unmatched 桶仍贡献 image2，集合不变。
	album.Tracks = []*Track{track1}
	if album.UpdateImagesFromChildren() {
		t.Fatalf("状态未变，应返回 false")
	}
	assertImages(t, album.Metadata.Images, images...)
	if album.Metadata.HasCommonImages {
		t.Fatalf("公共标志应仍为 false")
	}

	// 去掉 track1：只剩 unmatched 桶。
	album.Tracks = nil
	if !album.UpdateImagesFromChildren() {
		t.Fatalf("集合变化应返回 true")
	}
	assertImages(t, album.Metadata.Images, images[1])
	if !album.Metadata.HasCommonImages {
		t.Fatalf("唯一孩子，公共标志应为 true")
	}

	// 加回 track2（视图仍是 image2）：什么都不变。
	album.Tracks = []*Track{track2}
	if album.UpdateImagesFromChildren() {
		t.Fatalf("同图孩子加回后状态未变，应返回 false")
	}
	assertImages(t, album.Metadata.Images, images[1])
	if !album.Metadata.HasCommonImages {
		t.Fatalf("公共标志应仍为 true")
	}
}

func TestCluster_RemoveImagesFromChildren(t *testing.T) {
	images, files := newTestFiles()

	cluster := NewCluster("Test")
	cluster.Files = append([]*File(nil), files...)
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}

	cluster.Files = removeFile(cluster.Files, files[0])
	if !cluster.RemoveImagesFromChildren([]*File{files[0]}) {
		t.Fatalf("集合缩小应返回 true")
	}
	assertImages(t, cluster.Metadata.Images, images[1])
	if !cluster.Metadata.HasCommonImages {
		t.Fatalf("剩余孩子同图，公共标志应为 true")
	}
}

func TestCluster_RemoveImagesFromChildren_CommonUnchanged(t *testing.T) {
	images, files := newTestFiles()

	cluster := NewCluster("Test")
	cluster.Files = append([]*File(nil), files[1:]...)
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}

	cluster.Files = removeFile(cluster.Files, files[1])
	if cluster.RemoveImagesFromChildren([]*File{files[1]}) {
		t.Fatalf("集合与标志都没变，应返回 false")
	}
	assertImages(t, cluster.Metadata.Images, images[1])
	if !cluster.Metadata.HasCommonImages {
		t.Fatalf("公共标志应仍为 true")
	}
}

func TestCluster_RemoveImagesFromChildren_EmptyFile(t *testing.T) {
	cluster := NewCluster("Test")
	f := NewFile(domain.AudioFile{RelPath: "test1.flac"})
	cluster.Files = append(cluster.Files, f)
	if cluster.UpdateImagesFromChildren() {
		t.Fatalf("无图孩子不改变空状态，应返回 false")
	}

	cluster.Files = removeFile(cluster.Files, f)
	if cluster.RemoveImagesFromChildren([]*File{f}) {
		t.Fatalf("仍是空集合+true，应返回 false")
	}
	if cluster.Metadata.Images.Len() != 0 || !cluster.Metadata.HasCommonImages {
		t.Fatalf("期望空集合与空真标志")
	}
}

func TestTrack_RemoveImagesFromChildren(t *testing.T) {
	images, files := newTestFiles()

	track := NewTrack(uuid.Nil)
	track.Files = append([]*File(nil), files...)
	if !track.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}

	track.Files = removeFile(track.Files, files[0])
	if !track.RemoveImagesFromChildren([]*File{files[0]}) {
		t.Fatalf("集合缩小应返回 true")
	}
	assertImages(t, track.Metadata.Images, images[1])
	if !track.Metadata.HasCommonImages {
		t.Fatalf("公共标志应为 true")
	}
}

func TestAlbum_RemoveFromUnmatchedBucket(t *testing.T) {
	images, files := newTestFiles()

	album := NewAlbum(uuid.Nil)
	album.UnmatchedFiles.Files = append([]*File(nil), files...)
	if !RefreshAlbumImages(album) {
		t.Fatalf("首次刷新应返回 true")
	}
	assertImages(t, album.Metadata.Images, images...)

	// 桶里删文件：先刷桶，再刷专辑（自底向上契约）。
	album.UnmatchedFiles.Files = removeFile(album.UnmatchedFiles.Files, files[0])
	if !album.UnmatchedFiles.RemoveImagesFromChildren([]*File{files[0]}) {
		t.Fatalf("桶的集合缩小应返回 true")
	}
	if !album.UpdateImagesFromChildren() {
		t.Fatalf("专辑集合缩小应返回 true")
	}
	assertImages(t, album.Metadata.Images, images[1])
	if !album.Metadata.HasCommonImages {
		t.Fatalf("公共标志应为 true")
	}
}

func TestAlbum_RemoveFromUnmatchedBucket_CommonUnchanged(t *testing.T) {
	images, files := newTestFiles()

	album := NewAlbum(uuid.Nil)
	album.UnmatchedFiles.Files = append([]*File(nil), files[1:]...)
	if !RefreshAlbumImages(album) {
		t.Fatalf("首次刷新应返回 true")
	}

	album.UnmatchedFiles.Files = removeFile(album.UnmatchedFiles.Files, files[1])
	if album.UnmatchedFiles.RemoveImagesFromChildren([]*File{files[1]}) {
		t.Fatalf("桶的状态未变，应返回 false")
	}
	if album.UpdateImagesFromChildren() {
		t.Fatalf("专辑状态未变，应返回 false")
	}
	assertImages(t, album.Metadata.Images, images[1])
	if !album.Metadata.HasCommonImages {
		t.Fatalf("公共标志应仍为 true")
	}
}

func TestCluster_AddImagesFromChildren(t *testing.T) {
	images, files := newTestFiles()

	cluster := NewCluster("Test")
	cluster.Files = []*File{files[0]}
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}

	cluster.Files = append(cluster.Files, files[1:]...)
	if !cluster.AddImagesFromChildren(files[1:]) {
		t.Fatalf("新增图片应返回 true")
	}
	assertImages(t, cluster.Metadata.Images, images...)
	if cluster.Metadata.HasCommonImages {
		t.Fatalf("孩子集合不一致，公共标志应为 false")
	}
}

func TestCluster_AddImagesFromChildren_NoChanges(t *testing.T) {
	images, files := newTestFiles()

	cluster := NewCluster("Test")
	cluster.Files = append([]*File(nil), files...)
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}
	// 已在孩子集合里的文件再次声明：没有任何新贡献。
	if cluster.AddImagesFromChildren([]*File{files[1]}) {
		t.Fatalf("没有新图片且标志不变，应返回 false")
	}
	assertImages(t, cluster.Metadata.Images, images...)
}

func TestCluster_AddImagesFromChildren_Nothing(t *testing.T) {
	_, files := newTestFiles()

	cluster := NewCluster("Test")
	cluster.Files = append([]*File(nil), files...)
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}
	if cluster.AddImagesFromChildren(nil) {
		t.Fatalf("空的 added 是 no-op，应返回 false")
	}
}

func TestCluster_AddImagesFromChildren_BreaksCommon(t *testing.T) {
	images, files := newTestFiles()

	// file2+file3 同图：公共。
	cluster := NewCluster("Test")
	cluster.Files = append([]*File(nil), files[1:]...)
	if !cluster.UpdateImagesFromChildren() {
		t.Fatalf("首次全量重算应返回 true")
	}
	if !cluster.Metadata.HasCommonImages {
		t.Fatalf("前置条件：公共标志应为 true")
	}

	// 追加 file1（不同图）：即使增量路径，也必须按全量孩子重算标志。
	cluster.Files = append(cluster.Files, files[0])
	if !cluster.AddImagesFromChildren([]*File{files[0]}) {
		t.Fatalf("集合与标志都变了，应返回 true")
	}
	assertImages(t, cluster.Metadata.Images, images...)
	if cluster.Metadata.HasCommonImages {
		t.Fatalf("公共标志应翻转为 false")
	}
}

// 增量路径与"清空后全量重算"必须殊途同归。
func TestIncrementalMatchesFullRecompute(t *testing.T) {
	_, files := newTestFiles()

	incremental := NewCluster("A")
	incremental.Files = []*File{files[0]}
	incremental.UpdateImagesFromChildren()
	incremental.Files = append(incremental.Files, files[1])
	incremental.AddImagesFromChildren([]*File{files[1]})
	incremental.Files = removeFile(incremental.Files, files[0])
	incremental.RemoveImagesFromChildren([]*File{files[0]})
	incremental.Files = append(incremental.Files, files[2])
	incremental.AddImagesFromChildren([]*File{files[2]})

	full := NewCluster("B")
	full.Files = append([]*File(nil), incremental.Files...)
	full.UpdateImagesFromChildren()

	if !incremental.Metadata.Images.Equal(full.Metadata.Images) {
		t.Fatalf("增量与全量的聚合集合不一致")
	}
	if incremental.Metadata.HasCommonImages != full.Metadata.HasCommonImages {
		t.Fatalf("增量与全量的公共标志不一致")
	}
}
