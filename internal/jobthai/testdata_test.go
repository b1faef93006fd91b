package jobthai

const resumeHTML = `<html><body>
<div id="ResumeViewDiv">
<table><tbody>
<tr><td align="left">รหัสใบสมัคร <span class="white">R-1001</span></td></tr>
<tr><td>a</td><td>b</td><td><span>อัพเดทล่าสุด</span><span>10 ตุลาคม 2569</span></td></tr>
</tbody></table>
<img id="DefaultPictureResume2Column" src="/photo/R-1001.jpg">
</div>
<table id="mainTableTwoColumn"><tbody><tr>
<td>
<table><tbody>
<tr><td><span class="head1">สมหญิง</span><span>-</span><span class="black">ใจดี</span></td></tr>
<tr><td>
<div><span class="head1">99/1 ถนนสุขุมวิท</span></div>
<div>อายุ : 27 ปี</div>
<div>เพศ : หญิง</div>
<div>สถานภาพ : โสด</div>
<div>สัญชาติ : ไทย</div>
<div>โทร <span class="black">081-234-5678</span></div>
<a href="mailto:somying@example.com">somying@example.com Click</a>
</td></tr>
<tr><td><table><tbody><tr><td width="50%" align="left"><div><span class="headNormal">กรุงเทพมหานคร</span></div></td></tr></tbody></table></td></tr>
<tr><td>เงินเดือนที่ต้องการ</td><td>18,000 - 25,000 บาท</td></tr>
<tr><td>ตำแหน่ง</td><td><table><tbody>
<tr><td>ประเภทงาน</td></tr>
<tr><td>รูปแบบงาน</td></tr>
<tr><td><span>1.</span><span>QC Supervisor</span><span>2.</span><span>R&amp;D Chemist</span><span>3.</span><span></span></td></tr>
</tbody></table></td></tr>
<tr><td>การศึกษา</td></tr>
<tr><td>ประวัติการศึกษา</td><td>
<table><tbody>
<tr><td>ปริญญาตรี</td></tr>
<tr><td><div>มหาวิทยาลัยเกษตรศาสตร์</div></td></tr>
<tr><td>ระดับการศึกษา</td><td>ปริญญาตรี</td></tr>
<tr><td>คณะ</td><td>วิทยาศาสตร์</td></tr>
<tr><td>สาขา</td><td>เคมี</td></tr>
</tbody></table>
<table><tbody>
<tr><td><div>โรงเรียนสาธิต</div></td></tr>
<tr><td>มัธยมศึกษาตอนปลาย</td></tr>
</tbody></table>
</td></tr>
</tbody></table>
</td>
<td>
<table><tbody>
<tr><td>ประวัติการทำงาน/ฝึกงาน</td></tr>
<tr><td>งาน</td><td>
<table><tbody>
<tr><td>มกราคม 2565 - ปัจจุบัน</td></tr>
<tr><td>QC Officer</td></tr>
<tr><td><div><span>บริษัท เอบีซี จำกัด</span></div></td></tr>
</tbody></table>
<table><tbody>
<tr><td>มีนาคม 2562 - ธันวาคม 2564</td></tr>
<tr><td>Lab Assistant</td></tr>
<tr><td>Cosmo Lab Co., Ltd.</td></tr>
</tbody></table>
</td></tr>
<tr><td>ความสามารถ</td></tr>
</tbody></table>
</td>
</tr></tbody></table>
</body></html>`

func resultsHTML(links []string, withNext bool) string {
	page := `<html><body><div id="content-l"><div>header</div><div><div><table><tbody><tr>`
	for i := 1; i <= 7; i++ {
		page += `<td></td>`
	}
	if withNext {
		page += `<td><a href="javascript:void(0)">&lt; ก่อนหน้า</a><a href="javascript:void(0)">ถัดไป &gt;</a></td>`
	}
	page += `</tr></tbody></table></div></div><ul>`
	for _, l := range links {
		page += `<li><a href="` + l + `">resume</a></li>`
	}
	return page + `</ul></div></body></html>`
}
